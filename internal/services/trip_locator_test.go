package services

import (
	"context"
	"testing"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
)

func TestFindActivePrefersEarlierScheduledShift(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{ID: 2, DriverID: 7, Session: models.SessionAfternoon, Direction: models.DirectionDropoff})
	store.addTrip(models.Trip{ID: 3, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup})

	loc := TripLocator{Trips: store, Clock: clockAt(14, 0)}
	trip, err := loc.Locate(context.Background(), 7, domain.Unspecified{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.ID != 3 {
		t.Fatalf("expected morning pickup trip 3, got %d", trip.ID)
	}
}

func TestFindActivePrefersInProgressOverScheduled(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{ID: 1, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup})
	store.addTrip(models.Trip{ID: 2, DriverID: 7, Session: models.SessionAfternoon, Direction: models.DirectionDropoff, Status: models.TripInProgress})

	trip, err := TripLocator{Trips: store, Clock: clockAt(8, 0)}.FindActive(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.ID != 2 {
		t.Fatalf("expected in-progress trip 2, got %d", trip.ID)
	}
}

func TestFindActiveIgnoresFinishedTrips(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{ID: 1, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup, Status: models.TripCompleted})
	store.addTrip(models.Trip{ID: 2, DriverID: 7, Session: models.SessionAfternoon, Direction: models.DirectionDropoff, Status: models.TripCancelled})
	// Another driver's active trip must not leak.
	store.addTrip(models.Trip{ID: 3, DriverID: 8, Session: models.SessionMorning, Direction: models.DirectionPickup})

	_, err := TripLocator{Trips: store, Clock: clockAt(8, 0)}.FindActive(context.Background(), 7)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "no active or scheduled trip today" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestFindForShiftIsScopedToToday(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{
		ID: 1, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup,
		TripDate: today.AddDate(0, 0, -1),
	})

	shift := domain.Shift{Direction: models.DirectionPickup, Session: models.SessionMorning}
	_, err := TripLocator{Trips: store, Clock: clockAt(7, 0)}.Locate(context.Background(), 7, domain.Explicit{Shift: shift})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "no trip assigned for this shift today" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	store.addTrip(models.Trip{ID: 2, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup})
	trip, err := TripLocator{Trips: store, Clock: clockAt(7, 0)}.Locate(context.Background(), 7, domain.Explicit{Shift: shift})
	if err != nil || trip.ID != 2 {
		t.Fatalf("expected trip 2, got id=%d err=%v", trip.ID, err)
	}
}

func TestFindForShiftDoesNotFallBackToActive(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{ID: 1, DriverID: 7, Session: models.SessionMorning, Direction: models.DirectionPickup, Status: models.TripInProgress})

	shift := domain.Shift{Direction: models.DirectionDropoff, Session: models.SessionAfternoon}
	_, err := TripLocator{Trips: store, Clock: clockAt(9, 0)}.FindForShift(context.Background(), 7, shift)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
