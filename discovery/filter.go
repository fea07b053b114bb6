package discovery

import (
	"fmt"
	"time"

	"github.com/pevans/nbudigest/locale"
)

// FilterMode selects which publication day a run keeps.
type FilterMode string

const (
	FilterToday     FilterMode = "today"
	FilterYesterday FilterMode = "yesterday"
	FilterNone      FilterMode = "none"
)

// ParseFilterMode validates a mode name.
func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(s); m {
	case FilterToday, FilterYesterday, FilterNone:
		return m, nil
	}
	return "", fmt.Errorf("invalid filter mode %q: must be today, yesterday or none", s)
}

// DateFilter decides whether a dated candidate is kept.
type DateFilter struct {
	Mode       FilterMode
	IgnoreDate bool
	// Now is the reference instant; its location defines calendar days.
	Now time.Time
}

// Target returns the day the filter matches against.
func (f DateFilter) Target() time.Time {
	if f.Mode == FilterYesterday {
		return locale.StartOfDay(f.Now).AddDate(0, 0, -1)
	}
	return locale.StartOfDay(f.Now)
}

// Keep reports whether a record published on date passes. A nil date never
// matches an active filter.
func (f DateFilter) Keep(date *time.Time) bool {
	if f.IgnoreDate || f.Mode == FilterNone {
		return true
	}
	if date == nil {
		return false
	}
	return locale.SameDay(date.In(f.Now.Location()), f.Target())
}
