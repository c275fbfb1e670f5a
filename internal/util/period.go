package util

import "time"

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC day
func Today() time.Time {
	return Day(time.Now().UTC())
}

// WeekBounds returns Monday..Sunday of the ISO week containing t
func WeekBounds(t time.Time) (time.Time, time.Time) {
	d := Day(t)
	// Sunday is 0 in time.Weekday; shift so Monday is 0
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// MonthBounds returns the first and last day of the month containing t
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of next month is the last day of this one
	end := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// YearBounds returns Jan 1 and Dec 31 of the year containing t
func YearBounds(t time.Time) (time.Time, time.Time) {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// DaysBetween lists every day from start to end inclusive
func DaysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthsBetween lists the first day of every month from start to end inclusive
func MonthsBetween(start, end time.Time) []time.Time {
	var months []time.Time
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
