package services

import (
	"context"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// AttendanceTracker applies check-in and undo on one (trip, student) record.
// Absent records are owned by reconciliation and rejected by both operations.
type AttendanceTracker struct {
	Attendance AttendanceStore
	Clock      utils.Clock
}

// CheckIn moves a pending record to attended. A second tap is a conflict,
// not a silent success.
func (t AttendanceTracker) CheckIn(ctx context.Context, tripID, studentID int64) (models.AttendanceRecord, error) {
	rec, err := t.load(ctx, tripID, studentID)
	if err != nil {
		return rec, err
	}
	if rec.Status != models.AttendancePending {
		return rec, checkInConflict(rec.Status)
	}

	now := t.Clock.Now()
	ok, err := t.Attendance.MarkAttended(ctx, tripID, studentID, now)
	if err != nil {
		return rec, err
	}
	if !ok {
		current, err := t.load(ctx, tripID, studentID)
		if err != nil {
			return rec, err
		}
		return current, checkInConflict(current.Status)
	}

	rec.Status = models.AttendanceAttended
	rec.AttendedAt = &now
	return rec, nil
}

// Undo moves an attended record back to pending and clears attended-at.
func (t AttendanceTracker) Undo(ctx context.Context, tripID, studentID int64) (models.AttendanceRecord, error) {
	rec, err := t.load(ctx, tripID, studentID)
	if err != nil {
		return rec, err
	}
	if rec.Status != models.AttendanceAttended {
		return rec, undoConflict(rec.Status)
	}

	ok, err := t.Attendance.MarkPending(ctx, tripID, studentID)
	if err != nil {
		return rec, err
	}
	if !ok {
		current, err := t.load(ctx, tripID, studentID)
		if err != nil {
			return rec, err
		}
		return current, undoConflict(current.Status)
	}

	rec.Status = models.AttendancePending
	rec.AttendedAt = nil
	return rec, nil
}

func (t AttendanceTracker) load(ctx context.Context, tripID, studentID int64) (models.AttendanceRecord, error) {
	rec, ok, err := t.Attendance.Get(ctx, tripID, studentID)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if !ok {
		return models.AttendanceRecord{}, domain.NotFoundError{Resource: "attendance", Msg: "student not on this trip"}
	}
	return rec, nil
}

func checkInConflict(status models.AttendanceStatus) error {
	switch status {
	case models.AttendanceAttended:
		return domain.ConflictError{Msg: "already checked in"}
	case models.AttendanceAbsent:
		return domain.ConflictError{Msg: "student marked absent"}
	default:
		return domain.ConflictError{Msg: "attendance changed concurrently, retry"}
	}
}

func undoConflict(status models.AttendanceStatus) error {
	switch status {
	case models.AttendancePending:
		return domain.ConflictError{Msg: "not checked in yet"}
	case models.AttendanceAbsent:
		return domain.ConflictError{Msg: "student marked absent"}
	default:
		return domain.ConflictError{Msg: "attendance changed concurrently, retry"}
	}
}
