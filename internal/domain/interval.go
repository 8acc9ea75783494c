package domain

import "time"

// DateLayout is the calendar-date format used by NeoWs query parameters.
const DateLayout = "2006-01-02"

// DateInterval is an inclusive range of UTC calendar dates. An interval whose
// End precedes its Start contains nothing.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// NewDateInterval keeps the calendar date of start and end as read in each
// value's own location, so midnight 2020-01-01 in UTC+05:00 stays 2020-01-01.
func NewDateInterval(start, end time.Time) DateInterval {
	return DateInterval{Start: calendarDate(start), End: calendarDate(end)}
}

// DetectionWindow returns [today, today+days] where today is now's UTC date.
func DetectionWindow(now time.Time, days int) DateInterval {
	today := civilDate(now)
	return DateInterval{Start: today, End: today.AddDate(0, 0, days)}
}

// Valid reports whether the interval can contain any date.
func (iv DateInterval) Valid() bool {
	return !iv.End.Before(iv.Start)
}

// Contains reports whether t's UTC calendar date lies within the interval.
// Inverted intervals need no special case: no date is both >= Start and
// <= End when End < Start.
func (iv DateInterval) Contains(t time.Time) bool {
	d := civilDate(t)
	return !d.Before(iv.Start) && !d.After(iv.End)
}

func (iv DateInterval) String() string {
	return iv.Start.Format(DateLayout) + ".." + iv.End.Format(DateLayout)
}

// WithinInterval reports whether the approach's UTC calendar date lies within
// [start, end], both ends inclusive. start and end contribute their own
// calendar dates; see NewDateInterval.
func WithinInterval(a CloseApproach, start, end time.Time) bool {
	return NewDateInterval(start, end).Contains(a.Time)
}

// civilDate is t's UTC calendar date. Approach instants and "now" are
// compared this way.
func civilDate(t time.Time) time.Time {
	return calendarDate(t.UTC())
}

// calendarDate is the date t shows on a wall clock in t's own location.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
