package models

import "time"

type AttendanceStatus string

const (
	AttendancePending  AttendanceStatus = "pending"
	AttendanceAttended AttendanceStatus = "attended"
	// AttendanceAbsent is only ever written by end-of-day reconciliation.
	AttendanceAbsent AttendanceStatus = "absent"
)

// Student rides from a fixed pickup stop and is dropped at a fixed dropoff stop.
type Student struct {
	ID             int64
	Name           string
	PickupStopID   int64
	DropoffStopID  int64
	PickupAddress  string
	DropoffAddress string
}

// StopFor returns the stop the student boards or leaves at for a direction.
func (s Student) StopFor(d Direction) int64 {
	if d == DirectionDropoff {
		return s.DropoffStopID
	}
	return s.PickupStopID
}

// AddressFor mirrors StopFor for the stop address.
func (s Student) AddressFor(d Direction) string {
	if d == DirectionDropoff {
		return s.DropoffAddress
	}
	return s.PickupAddress
}

// AttendanceRecord is the check-in state of one student on one trip.
// AttendedAt is non-nil exactly when Status is attended.
type AttendanceRecord struct {
	TripID     int64
	StudentID  int64
	Status     AttendanceStatus
	AttendedAt *time.Time

	// Populated by roster reads.
	Student Student
}
