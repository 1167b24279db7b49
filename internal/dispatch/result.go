package dispatch

import "time"

type Outcome int

const (
	// IgnoredSelf is a message written by the bot itself.
	IgnoredSelf Outcome = iota
	NotACommand
	Handled
	Notified
	// Suppressed is an error whose notice was dropped by the failed
	// notification limit.
	Suppressed
	// SendFailed is an error whose notice could not be delivered.
	SendFailed
)

func (o Outcome) String() string {
	switch o {
	case IgnoredSelf:
		return "ignored_self"
	case NotACommand:
		return "not_a_command"
	case Handled:
		return "handled"
	case Notified:
		return "notified"
	case Suppressed:
		return "suppressed"
	case SendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	// Command is the canonical name of the matched command, or the name the
	// user typed when nothing matched.
	Command  string
	Err      *Error
	Duration time.Duration
}

// Kind returns the error kind label, empty on success.
func (r Result) Kind() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind.String()
}
