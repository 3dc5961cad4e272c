package domain

import (
	"strings"
	"time"

	"schoolbus/internal/domain/models"
)

// Shift is a fully resolved (direction, session) pair.
type Shift struct {
	Direction models.Direction
	Session   models.Session
}

// ShiftFilter selects how a trip is located: Unspecified or Explicit.
type ShiftFilter interface {
	isShiftFilter()
}

// Unspecified lets the locator pick the operationally active trip.
type Unspecified struct{}

// Explicit pins the lookup to one shift.
type Explicit struct {
	Shift Shift
}

func (Unspecified) isShiftFilter() {}
func (Explicit) isShiftFilter()    {}

var (
	sessionOf = map[models.Direction]models.Session{
		models.DirectionPickup:  models.SessionMorning,
		models.DirectionDropoff: models.SessionAfternoon,
	}
	directionOf = map[models.Session]models.Direction{
		models.SessionMorning:   models.DirectionPickup,
		models.SessionAfternoon: models.DirectionDropoff,
	}
)

// ResolveShift completes a possibly partial (direction, session) pair.
// Empty values mean omitted. With both omitted the session comes from the
// hour of now, which must already be in the civil location.
func ResolveShift(direction models.Direction, session models.Session, now time.Time) (Shift, error) {
	direction = models.Direction(strings.ToLower(strings.TrimSpace(string(direction))))
	session = models.Session(strings.ToLower(strings.TrimSpace(string(session))))

	if direction != "" && !direction.Valid() {
		return Shift{}, ValidationError{Field: "shift", Msg: "shift must be pickup or dropoff"}
	}
	if session != "" && !session.Valid() {
		return Shift{}, ValidationError{Field: "session", Msg: "session must be morning or afternoon"}
	}

	switch {
	case direction == "" && session == "":
		session = models.SessionAfternoon
		if now.Hour() < 12 {
			session = models.SessionMorning
		}
		direction = directionOf[session]
	case direction == "":
		direction = directionOf[session]
	case session == "":
		session = sessionOf[direction]
	case sessionOf[direction] != session:
		return Shift{}, ValidationError{Msg: "shift and session do not correspond"}
	}

	return Shift{Direction: direction, Session: session}, nil
}

// ParseShiftFilter builds the filter from raw caller input. Nothing supplied
// yields Unspecified; anything supplied is resolved and validated.
func ParseShiftFilter(direction, session string, now time.Time) (ShiftFilter, error) {
	if strings.TrimSpace(direction) == "" && strings.TrimSpace(session) == "" {
		return Unspecified{}, nil
	}
	shift, err := ResolveShift(models.Direction(direction), models.Session(session), now)
	if err != nil {
		return nil, err
	}
	return Explicit{Shift: shift}, nil
}
