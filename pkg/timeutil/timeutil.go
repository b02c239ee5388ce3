// Package timeutil holds calendar helpers that work in an explicit location.
// Schedules and meal logs are grouped by the family's local calendar day, so
// every helper takes the location instead of assuming one.
package timeutil

import "time"

// Clock returns the current instant. Stores take a Clock so tests can pin time.
type Clock func() time.Time

// SystemClock returns time.Now.
func SystemClock() Clock {
	return time.Now
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// LoadLocation resolves name, falling back to UTC for empty or unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	loc = orUTC(loc)
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns Monday 00:00 of the week containing t in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// IsSameDay reports whether a and b fall on the same calendar day in loc.
func IsSameDay(a, b time.Time, loc *time.Location) bool {
	loc = orUTC(loc)
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayKey formats t's calendar day in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format("2006-01-02")
}

// YearsBetween returns the number of whole years from birth to now,
// counting a birthday only once it has been reached.
func YearsBetween(birth, now time.Time) int {
	if now.Before(birth) {
		return 0
	}
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// DaysBetween returns the number of calendar days from a to b in loc,
// negative when b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := StartOfDay(a, loc)
	db := StartOfDay(b, loc)
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
