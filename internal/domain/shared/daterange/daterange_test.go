package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(day(10), day(5))
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day(5), day(5))
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day(5))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestDaysRoundsPartialDaysUp(t *testing.T) {
	dr, err := New(day(5), day(8))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Days())

	// 2 days and 6 hours bills as 3 days
	dr, err = New(day(5), day(7).Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Days())

	// less than a day still bills one day
	dr, err = New(day(5), day(5).Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, dr.Days())
}

func TestOverlapsEndpointsInclusive(t *testing.T) {
	base, _ := New(day(5), day(10))

	cases := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"fully inside", DateRange{Start: day(6), End: day(9)}, true},
		{"partial overlap", DateRange{Start: day(8), End: day(12)}, true},
		{"shared endpoint", DateRange{Start: day(10), End: day(14)}, true},
		{"shared start endpoint", DateRange{Start: day(1), End: day(5)}, true},
		{"disjoint after", DateRange{Start: day(11), End: day(14)}, false},
		{"disjoint before", DateRange{Start: day(1), End: day(4)}, false},
		{"covers base", DateRange{Start: day(1), End: day(20)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestCalendarDaysInclusive(t *testing.T) {
	dr, _ := New(day(5).Add(15*time.Hour), day(7).Add(9*time.Hour))
	days := dr.CalendarDays()
	require.Len(t, days, 3)
	assert.Equal(t, day(5), days[0])
	assert.Equal(t, day(7), days[2])
}

func TestSameDayNormalizesToUTC(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*3600)
	a := time.Date(2026, time.January, 6, 2, 0, 0, 0, karachi) // Jan 5 21:00 UTC
	assert.True(t, SameDay(a, day(5)))
	assert.False(t, SameDay(a, day(6)))
}
