package database

import (
	"testing"
	"time"
)

func TestWeekID(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), "2026-W35"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		// Jan 1 2027 is a Friday, still ISO week 53 of 2026.
		{time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tc := range tests {
		if got := WeekID(tc.date); got != tc.want {
			t.Errorf("WeekID(%s) = %q, want %q", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestWeekBounds(t *testing.T) {
	wednesday := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(wednesday)

	if start.Weekday() != time.Monday {
		t.Errorf("start weekday = %s", start.Weekday())
	}
	if !start.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %s", start)
	}
	if !end.Equal(start.AddDate(0, 0, 7)) {
		t.Errorf("end = %s", end)
	}

	// Sunday belongs to the week started the previous Monday.
	sunday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	sStart, _ := WeekBounds(sunday)
	if !sStart.Equal(start) {
		t.Errorf("sunday start = %s, want %s", sStart, start)
	}
}

func TestParseWeekID(t *testing.T) {
	monday, err := ParseWeekID("2026-W35")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !monday.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monday = %s", monday)
	}

	for _, bad := range []string{"", "2026", "2026-W00", "2026-W60", "garbage-Wxx"} {
		if _, err := ParseWeekID(bad); err == nil {
			t.Errorf("ParseWeekID(%q) succeeded, want error", bad)
		}
	}
}

func TestParseWeekIDRoundTrip(t *testing.T) {
	for _, id := range []string{"2026-W01", "2026-W35", "2026-W53", "2025-W52"} {
		monday, err := ParseWeekID(id)
		if err != nil {
			t.Errorf("ParseWeekID(%q): %v", id, err)
			continue
		}
		if got := WeekID(monday); got != id {
			t.Errorf("WeekID(ParseWeekID(%q)) = %q", id, got)
		}
	}
}

func TestFormatWeekDisplay(t *testing.T) {
	got := FormatWeekDisplay("2026-W35")
	want := "Week 35, 2026 (Aug 24 - Aug 30)"
	if got != want {
		t.Errorf("FormatWeekDisplay = %q, want %q", got, want)
	}

	if got := FormatWeekDisplay("not-a-week"); got != "not-a-week" {
		t.Errorf("invalid id not passed through: %q", got)
	}
}
