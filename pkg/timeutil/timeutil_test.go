package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfWeek(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)

	// Sunday evening local time belongs to the week that started on Monday.
	sunday := time.Date(2026, 10, 18, 21, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), StartOfWeek(sunday, loc))

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, loc)
	assert.Equal(t, monday, StartOfWeek(monday, loc))
}

func TestIsSameDay_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	a := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC) // 01:00 on the 16th locally
	b := time.Date(2026, 10, 16, 10, 0, 0, 0, loc)

	assert.True(t, IsSameDay(a, b, loc))
	assert.False(t, IsSameDay(a, b, time.UTC))
}

func TestYearsBetween(t *testing.T) {
	birth := time.Date(2016, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 9, YearsBetween(birth, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10, YearsBetween(birth, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, YearsBetween(birth, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 10, 15, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, DaysBetween(a, b, time.UTC))
	assert.Equal(t, -2, DaysBetween(b, a, time.UTC))
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	assert.True(t, Overlaps(base, base.Add(time.Hour), base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.False(t, Overlaps(base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2*time.Hour)))
}
