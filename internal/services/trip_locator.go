package services

import (
	"context"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// TripLocator finds the trip a driver request refers to, scoped to today in
// the clock's civil location.
type TripLocator struct {
	Trips TripStore
	Clock utils.Clock
}

// Today is the civil date used for every lookup.
func (l TripLocator) Today() time.Time {
	return utils.CivilDate(l.Clock.Now())
}

// Locate dispatches on the filter: explicit shift lookup or the active trip.
func (l TripLocator) Locate(ctx context.Context, driverID int64, filter domain.ShiftFilter) (models.Trip, error) {
	switch f := filter.(type) {
	case domain.Explicit:
		return l.FindForShift(ctx, driverID, f.Shift)
	default:
		return l.FindActive(ctx, driverID)
	}
}

// FindForShift returns the driver's trip for today and the given shift.
func (l TripLocator) FindForShift(ctx context.Context, driverID int64, shift domain.Shift) (models.Trip, error) {
	trip, ok, err := l.Trips.FindByShift(ctx, driverID, l.Today(), shift)
	if err != nil {
		return models.Trip{}, err
	}
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip", Msg: "no trip assigned for this shift today"}
	}
	return trip, nil
}

// FindActive prefers today's first in_progress trip, then the first
// scheduled one. Completed and cancelled trips are never returned.
func (l TripLocator) FindActive(ctx context.Context, driverID int64) (models.Trip, error) {
	today := l.Today()
	for _, status := range []models.TripStatus{models.TripInProgress, models.TripScheduled} {
		trip, ok, err := l.Trips.FindFirstByStatus(ctx, driverID, today, status)
		if err != nil {
			return models.Trip{}, err
		}
		if ok {
			return trip, nil
		}
	}
	return models.Trip{}, domain.NotFoundError{Resource: "trip", Msg: "no active or scheduled trip today"}
}
