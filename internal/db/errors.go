package db

import "errors"

// ErrNoRows is returned by lookups that match nothing. Both backends
// translate their driver's sentinel into it.
var ErrNoRows = errors.New("no rows in result set")

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}
