package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: end must be after start")

// DateRange represents a rental interval [Start, End]. Overlap checks treat
// both endpoints as inclusive: a booking ending on a day conflicts with one
// starting on the same day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the billable duration in whole days, rounding partial days up.
// A range shorter than one day still bills one day.
func (dr DateRange) Days() int {
	d := dr.End.Sub(dr.Start)
	if d <= 0 {
		return 1
	}
	days := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// Hours returns the duration in whole hours, rounding up, minimum one hour.
func (dr DateRange) Hours() int {
	d := dr.End.Sub(dr.Start)
	if d <= 0 {
		return 1
	}
	hours := int((d + time.Hour - 1) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}

// Overlaps reports whether two ranges intersect, endpoints inclusive.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

// CalendarDays enumerates every calendar day covered by the range, start and
// end days inclusive, truncated to UTC midnight.
func (dr DateRange) CalendarDays() []time.Time {
	first := DayOf(dr.Start)
	last := DayOf(dr.End)
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}
