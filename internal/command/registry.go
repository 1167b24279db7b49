package command

import (
	"maps"
	"slices"

	"github.com/samber/lo"

	"github.com/jusunglee/mostlybot/internal/cooldown"
)

type Entry struct {
	Names     []string
	RateLimit *cooldown.Policy
	Handler   Handler
}

// NewEntry builds an entry from a handler, picking up its rate limit when
// it declares one.
func NewEntry(h Handler) *Entry {
	e := &Entry{Names: h.Names(), Handler: h}
	if rl, ok := h.(RateLimited); ok {
		p := rl.RateLimit()
		e.RateLimit = &p
	}
	return e
}

func (e *Entry) Canonical() string {
	if len(e.Names) == 0 {
		return ""
	}
	return e.Names[0]
}

// Registry maps aliases to entries. Registering an alias that is already
// taken replaces it for that alias only: the previous entry stays reachable
// through any aliases it still owns.
type Registry struct {
	byName map[string]*Entry
	order  []*Entry
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Entry)}
}

func (r *Registry) Register(h Handler) *Entry {
	e := NewEntry(h)
	r.Add(e)
	return e
}

func (r *Registry) Add(e *Entry) {
	for _, name := range e.Names {
		r.byName[name] = e
	}
	r.order = append(r.order, e)
}

func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Snapshot copies the alias table. Entries are shared, later registrations
// on either registry are not visible to the other.
func (r *Registry) Snapshot() *Registry {
	return &Registry{
		byName: maps.Clone(r.byName),
		order:  slices.Clone(r.order),
	}
}

// Names returns every registered alias in sorted order.
func (r *Registry) Names() []string {
	names := lo.Keys(r.byName)
	slices.Sort(names)
	return names
}

// Entries returns the distinct entries still reachable through at least one
// alias, in registration order.
func (r *Registry) Entries() []*Entry {
	live := lo.Uniq(lo.Values(r.byName))
	return lo.Uniq(lo.Filter(r.order, func(e *Entry, _ int) bool {
		return slices.Contains(live, e)
	}))
}

func (r *Registry) Len() int { return len(r.byName) }

