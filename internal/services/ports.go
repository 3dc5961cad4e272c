package services

import (
	"context"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
)

// TripStore is the persistence the trip core needs. Mark* methods are
// compare-and-set: they return false when the precondition no longer holds
// at write time.
type TripStore interface {
	FindByShift(ctx context.Context, driverID int64, date time.Time, shift domain.Shift) (models.Trip, bool, error)
	FindFirstByStatus(ctx context.Context, driverID int64, date time.Time, status models.TripStatus) (models.Trip, bool, error)
	GetByID(ctx context.Context, tripID int64) (models.Trip, error)
	MarkStarted(ctx context.Context, tripID int64, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, tripID int64, at time.Time) (bool, error)
}

// AttendanceStore holds one record per (trip, student).
type AttendanceStore interface {
	Get(ctx context.Context, tripID, studentID int64) (models.AttendanceRecord, bool, error)
	ListByTrip(ctx context.Context, tripID int64) ([]models.AttendanceRecord, error)
	CountByStatus(ctx context.Context, tripID int64, status models.AttendanceStatus) (int, error)
	MarkAttended(ctx context.Context, tripID, studentID int64, at time.Time) (bool, error)
	MarkPending(ctx context.Context, tripID, studentID int64) (bool, error)
}

// RouteStopStore lists a route's stops ordered by stop order.
type RouteStopStore interface {
	ListByRoute(ctx context.Context, routeID int64) ([]models.RouteStop, error)
}

// EventPublisher receives lifecycle events after a transition is persisted.
type EventPublisher interface {
	Publish(ctx context.Context, ev TripEvent) error
}

// Recorder counts transitions and conflicts.
type Recorder interface {
	TripStarted()
	TripCompleted()
	AttendanceChanged(action string)
	TransitionConflict(op string)
}

// TripEvent is the payload published after a successful transition.
type TripEvent struct {
	Type       string    `json:"type"`
	TripID     int64     `json:"tripId"`
	DriverID   int64     `json:"driverId"`
	StudentID  int64     `json:"studentId,omitempty"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	EventTripStarted     = "trip_started"
	EventTripCompleted   = "trip_completed"
	EventStudentAttended = "student_attended"
	EventAttendanceUndo  = "attendance_undone"
)
