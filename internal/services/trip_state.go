package services

import (
	"context"
	"fmt"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// TripStateMachine applies start and complete. Both are compare-and-set
// against the stored status; a lost race is reported as a conflict computed
// from a fresh read, never retried.
type TripStateMachine struct {
	Trips      TripStore
	Attendance AttendanceStore
	Clock      utils.Clock
}

// Start moves a scheduled trip to in_progress.
func (m TripStateMachine) Start(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if trip.Status != models.TripScheduled {
		return trip, startConflict(trip.Status)
	}

	now := m.Clock.Now()
	ok, err := m.Trips.MarkStarted(ctx, trip.ID, now)
	if err != nil {
		return trip, err
	}
	if !ok {
		current, err := m.Trips.GetByID(ctx, trip.ID)
		if err != nil {
			return trip, err
		}
		return current, startConflict(current.Status)
	}

	trip.Status = models.TripInProgress
	trip.ActualStart = &now
	return trip, nil
}

// Complete moves an in_progress trip to completed once no student is pending.
func (m TripStateMachine) Complete(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if trip.Status != models.TripInProgress {
		return trip, completeConflict(trip.Status)
	}
	if err := m.ensureNoPending(ctx, trip.ID); err != nil {
		return trip, err
	}

	now := m.Clock.Now()
	ok, err := m.Trips.MarkCompleted(ctx, trip.ID, now)
	if err != nil {
		return trip, err
	}
	if !ok {
		// Either the status moved or a student went back to pending.
		current, err := m.Trips.GetByID(ctx, trip.ID)
		if err != nil {
			return trip, err
		}
		if current.Status != models.TripInProgress {
			return current, completeConflict(current.Status)
		}
		if err := m.ensureNoPending(ctx, trip.ID); err != nil {
			return current, err
		}
		return current, domain.ConflictError{Msg: "trip changed concurrently, retry"}
	}

	trip.Status = models.TripCompleted
	trip.ActualEnd = &now
	return trip, nil
}

func (m TripStateMachine) ensureNoPending(ctx context.Context, tripID int64) error {
	pending, err := m.Attendance.CountByStatus(ctx, tripID, models.AttendancePending)
	if err != nil {
		return err
	}
	if pending > 0 {
		return domain.ConflictError{
			Msg:          pendingMessage(pending),
			PendingCount: pending,
		}
	}
	return nil
}

func startConflict(status models.TripStatus) error {
	if status == models.TripInProgress {
		return domain.ConflictError{Msg: "already started"}
	}
	return domain.ConflictError{Msg: "already finished or cancelled"}
}

func completeConflict(status models.TripStatus) error {
	switch status {
	case models.TripCompleted:
		return domain.ConflictError{Msg: "already completed"}
	case models.TripScheduled:
		return domain.ConflictError{Msg: "not started yet"}
	default:
		return domain.ConflictError{Msg: "trip cannot be completed from status " + string(status)}
	}
}

func pendingMessage(n int) string {
	if n == 1 {
		return "1 student not yet checked"
	}
	return fmt.Sprintf("%d students not yet checked", n)
}
