// Package calendar is the boundary to the shared appointment calendar. It
// exposes free/busy checks and event inserts behind the Gateway interface.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotReady is returned by a gateway whose startup initialization failed.
var ErrNotReady = errors.New("calendar: gateway not ready")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch (a.End == b.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Slot is an appointment-sized interval pinned to a location.
type Slot struct {
	Interval
	Location *time.Location
}

// NewSlot builds a slot starting at start and lasting d. The slot is
// expressed in start's location.
func NewSlot(start time.Time, d time.Duration) Slot {
	return Slot{
		Interval: Interval{Start: start, End: start.Add(d)},
		Location: start.Location(),
	}
}

// Duration returns End - Start.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Key identifies a slot on a calendar independent of the timezone it was
// expressed in.
func (s Slot) Key(calendarID string) string {
	return fmt.Sprintf("%s:%d", calendarID, s.Start.Unix())
}

// Availability is the outcome of a free/busy check for one slot.
type Availability struct {
	// Busy lists the occupied intervals overlapping the requested slot.
	Busy []Interval
}

// Available reports whether nothing overlaps the requested slot.
func (a Availability) Available() bool {
	return len(a.Busy) == 0
}

// Appointment is a calendar entry to be committed.
type Appointment struct {
	CalendarID  string
	Slot        Slot
	Summary     string
	Description string
	CallerRef   string
}

// Committed describes an appointment accepted by the calendar store.
type Committed struct {
	EventID  string
	HTMLLink string
	Slot     Slot
}

// Gateway wraps the calendar operations the scheduling engine needs.
type Gateway interface {
	CheckAvailability(ctx context.Context, slot Slot, calendarID string) (Availability, error)
	BookAppointment(ctx context.Context, appt Appointment) (Committed, error)
}

// Readiness is computed once at startup and handed to consumers by value.
type Readiness struct {
	Ready  bool
	Reason string
}

// NotReady builds a Readiness carrying the initialization failure.
func NotReady(err error) Readiness {
	reason := "not configured"
	if err != nil {
		reason = err.Error()
	}
	return Readiness{Ready: false, Reason: reason}
}

// GatewayError is a transport, auth, or timeout failure during a live call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("calendar: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was the per-call deadline expiring.
func (e *GatewayError) IsTimeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// BusyOverlapping filters periods down to those overlapping slot.
func BusyOverlapping(slot Slot, periods []Interval) []Interval {
	var out []Interval
	for _, p := range periods {
		if slot.Overlaps(p) {
			out = append(out, p)
		}
	}
	return out
}
