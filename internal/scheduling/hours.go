package scheduling

import (
	"time"

	"github.com/baughelectric/call-assistant/internal/calendar"
)

// Window is an opening window in minutes after local midnight, [Open, Close).
type Window struct {
	Open  int
	Close int
}

// OpeningHours maps weekdays to their window. Missing days are closed.
type OpeningHours map[time.Weekday]Window

// DefaultOpeningHours is Monday-Friday 8 AM to 6 PM and Saturday 9 AM to 2 PM.
func DefaultOpeningHours() OpeningHours {
	weekday := Window{Open: 8 * 60, Close: 18 * 60}
	return OpeningHours{
		time.Monday:    weekday,
		time.Tuesday:   weekday,
		time.Wednesday: weekday,
		time.Thursday:  weekday,
		time.Friday:    weekday,
		time.Saturday:  {Open: 9 * 60, Close: 14 * 60},
	}
}

// Contains reports whether the whole slot falls inside one day's window,
// evaluated in the slot's own location.
func (h OpeningHours) Contains(slot calendar.Slot) bool {
	loc := slot.Location
	if loc == nil {
		loc = time.UTC
	}
	start := slot.Start.In(loc)
	end := slot.End.In(loc)
	w, ok := h[start.Weekday()]
	if !ok {
		return false
	}
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	opens := midnight.Add(time.Duration(w.Open) * time.Minute)
	closes := midnight.Add(time.Duration(w.Close) * time.Minute)
	return !start.Before(opens) && !end.After(closes)
}
