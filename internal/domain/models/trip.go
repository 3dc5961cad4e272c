package models

import "time"

// Direction is the movement of the bus: pickup (to school) or dropoff (home).
type Direction string

const (
	DirectionPickup  Direction = "pickup"
	DirectionDropoff Direction = "dropoff"
)

func (d Direction) Valid() bool {
	return d == DirectionPickup || d == DirectionDropoff
}

// Session is the half of the school day a trip belongs to.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
)

func (s Session) Valid() bool {
	return s == SessionMorning || s == SessionAfternoon
}

// Label is the display name used in driver summaries.
func (s Session) Label() string {
	switch s {
	case SessionMorning:
		return "Morning"
	case SessionAfternoon:
		return "Afternoon"
	default:
		return string(s)
	}
}

// TripStatus follows scheduled -> in_progress -> completed; cancelled is set externally.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// Trip is one bus movement for one driver on one date and shift.
type Trip struct {
	ID          int64
	DriverID    int64
	RouteID     *int64
	BusID       *int64
	TripDate    time.Time
	Session     Session
	Direction   Direction
	Status      TripStatus
	ActualStart *time.Time
	ActualEnd   *time.Time

	// Joined display fields; empty when the trip has no route or bus yet.
	RouteName string
	BusLabel  string
}

// HasRoute reports whether a route has been assigned.
func (t Trip) HasRoute() bool { return t.RouteID != nil && *t.RouteID > 0 }

// RouteStop is an ordered waypoint on a route, joined with its stop.
type RouteStop struct {
	RouteID   int64
	StopID    int64
	StopOrder int
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
}
