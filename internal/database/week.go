package database

import (
	"fmt"
	"strings"
	"time"
)

// WeekID formats a time as the ISO-8601 week identifier "YYYY-Www".
// The year is the ISO week-year, which can differ from the calendar
// year around January 1st.
func WeekID(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// CurrentWeekID returns the week identifier for now, in UTC.
func CurrentWeekID() string {
	return WeekID(time.Now().UTC())
}

// WeekBounds returns the [start, end) interval of the ISO week that
// contains t: Monday 00:00 UTC through the following Monday.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(weekday - 1))
	return monday, monday.AddDate(0, 0, 7)
}

// ParseWeekID resolves a "YYYY-Www" identifier back to its Monday.
func ParseWeekID(weekID string) (time.Time, error) {
	parts := strings.SplitN(weekID, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid week id %q", weekID)
	}
	var year, week int
	if _, err := fmt.Sscanf(parts[0], "%d", &year); err != nil {
		return time.Time{}, fmt.Errorf("invalid week id %q", weekID)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &week); err != nil {
		return time.Time{}, fmt.Errorf("invalid week id %q", weekID)
	}
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("invalid week number in %q", weekID)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	week1Monday, _ := WeekBounds(jan4)
	monday := week1Monday.AddDate(0, 0, (week-1)*7)

	if WeekID(monday) != weekID {
		return time.Time{}, fmt.Errorf("week %q does not exist", weekID)
	}
	return monday, nil
}

// FormatWeekDisplay renders a week id for humans: "Week 35, 2026
// (Aug 24 - Aug 30)".
func FormatWeekDisplay(weekID string) string {
	monday, err := ParseWeekID(weekID)
	if err != nil {
		return weekID
	}
	sunday := monday.AddDate(0, 0, 6)
	_, week := monday.ISOWeek()
	return fmt.Sprintf("Week %d, %d (%s - %s)",
		week, monday.Year(), monday.Format("Jan 02"), sunday.Format("Jan 02"))
}
