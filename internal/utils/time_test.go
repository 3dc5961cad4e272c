package utils

import (
	"testing"
	"time"
)

func TestCivilDateKeepsLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	// 23:30 UTC on the 1st is already the 2nd in WIB.
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC).In(loc)
	got := CivilDate(now)
	if FormatDate(got) != "2026-03-02" {
		t.Fatalf("civil date = %s, want 2026-03-02", FormatDate(got))
	}
	if got.Hour() != 0 || got.Location() != loc {
		t.Fatalf("expected midnight in WIB, got %v", got)
	}
}

func TestFormatClockAndTimestamp(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	if FormatClock(nil, loc) != nil || FormatTimestamp(nil, loc) != nil {
		t.Fatalf("nil time must format to nil")
	}
	ts := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	if got := *FormatClock(&ts, loc); got != "07:05" {
		t.Fatalf("clock = %s, want 07:05", got)
	}
	if got := *FormatTimestamp(&ts, loc); got != "2026-03-02T07:05:00+07:00" {
		t.Fatalf("timestamp = %s", got)
	}
}

func TestStringHelpers(t *testing.T) {
	if got := OrDash("  "); got != "-" {
		t.Fatalf("OrDash blank = %q", got)
	}
	if got := OrDash(" Jl.  Melati   1 "); got != "Jl. Melati 1" {
		t.Fatalf("OrDash = %q", got)
	}
	if got := FirstNonEmpty("", " ", "Budi", "x"); got != "Budi" {
		t.Fatalf("FirstNonEmpty = %q", got)
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("  ")
	if err != nil || loc != time.Local {
		t.Fatalf("blank zone = %v, %v; want time.Local", loc, err)
	}
	loc, err = LoadLocation(" UTC ")
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("UTC zone = %v, %v", loc, err)
	}
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
