package domain

import (
	"testing"
	"time"

	"schoolbus/internal/domain/models"
)

var jakarta = time.FixedZone("WIB", 7*3600)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, jakarta)
}

func TestResolveShiftInfersFromClock(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want Shift
	}{
		{"early morning", at(6, 30), Shift{models.DirectionPickup, models.SessionMorning}},
		{"one minute before noon", at(11, 59), Shift{models.DirectionPickup, models.SessionMorning}},
		{"noon", at(12, 0), Shift{models.DirectionDropoff, models.SessionAfternoon}},
		{"evening", at(18, 15), Shift{models.DirectionDropoff, models.SessionAfternoon}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveShift("", "", tc.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolveShiftDerivesMissingHalf(t *testing.T) {
	// The clock must not influence a partially specified pair.
	for _, now := range []time.Time{at(7, 0), at(15, 0)} {
		cases := []struct {
			direction models.Direction
			session   models.Session
			want      Shift
		}{
			{models.DirectionPickup, "", Shift{models.DirectionPickup, models.SessionMorning}},
			{models.DirectionDropoff, "", Shift{models.DirectionDropoff, models.SessionAfternoon}},
			{"", models.SessionMorning, Shift{models.DirectionPickup, models.SessionMorning}},
			{"", models.SessionAfternoon, Shift{models.DirectionDropoff, models.SessionAfternoon}},
		}
		for _, tc := range cases {
			got, err := ResolveShift(tc.direction, tc.session, now)
			if err != nil {
				t.Fatalf("ResolveShift(%q, %q): %v", tc.direction, tc.session, err)
			}
			if got != tc.want {
				t.Fatalf("ResolveShift(%q, %q) = %+v, want %+v", tc.direction, tc.session, got, tc.want)
			}
		}
	}
}

func TestResolveShiftMismatchIsInvalidArgument(t *testing.T) {
	mismatches := [][2]string{
		{"pickup", "afternoon"},
		{"dropoff", "morning"},
	}
	for _, m := range mismatches {
		for _, now := range []time.Time{at(7, 0), at(15, 0)} {
			_, err := ResolveShift(models.Direction(m[0]), models.Session(m[1]), now)
			if !IsValidation(err) {
				t.Fatalf("ResolveShift(%s, %s) err = %v, want validation error", m[0], m[1], err)
			}
			if err.Error() != "shift and session do not correspond" {
				t.Fatalf("unexpected message %q", err.Error())
			}
		}
	}
}

func TestResolveShiftMatchingPairAndCase(t *testing.T) {
	got, err := ResolveShift(" Pickup ", "MORNING", at(16, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Direction != models.DirectionPickup || got.Session != models.SessionMorning {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveShiftRejectsUnknownValues(t *testing.T) {
	if _, err := ResolveShift("sideways", "", at(8, 0)); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown shift, got %v", err)
	}
	if _, err := ResolveShift("", "evening", at(8, 0)); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown session, got %v", err)
	}
}

func TestParseShiftFilter(t *testing.T) {
	f, err := ParseShiftFilter("", " ", at(9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(Unspecified); !ok {
		t.Fatalf("expected Unspecified, got %T", f)
	}

	f, err = ParseShiftFilter("", "afternoon", at(9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex, ok := f.(Explicit)
	if !ok {
		t.Fatalf("expected Explicit, got %T", f)
	}
	if ex.Shift.Direction != models.DirectionDropoff {
		t.Fatalf("direction = %s, want dropoff", ex.Shift.Direction)
	}

	if _, err := ParseShiftFilter("dropoff", "morning", at(9, 0)); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
