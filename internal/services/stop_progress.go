package services

import (
	"sort"

	"schoolbus/internal/domain/models"
)

type StopStatus string

const (
	StopPending   StopStatus = "pending"
	StopCurrent   StopStatus = "current"
	StopCompleted StopStatus = "completed"
)

// StopProgress is one route stop with the students assigned to it for the
// trip's direction.
type StopProgress struct {
	Stop    models.RouteStop
	Records []models.AttendanceRecord
	Status  StopStatus
}

// StudentCount is the number of riders boarding or leaving at the stop.
func (p StopProgress) StudentCount() int { return len(p.Records) }

// Projection is the derived per-stop view of a trip.
type Projection struct {
	TripStatus models.TripStatus
	Stops      []StopProgress
	// Unassigned counts records whose stop is not on the route.
	Unassigned int
}

// Current returns the stop the bus is heading to, if any.
func (p Projection) Current() (StopProgress, bool) {
	for _, s := range p.Stops {
		if s.Status == StopCurrent {
			return s, true
		}
	}
	return StopProgress{}, false
}

// ProjectStops derives stop progress. At most one stop is current: the
// lowest-order stop that still has a pending student while the trip runs.
// Stops with no students resolve immediately.
func ProjectStops(trip models.Trip, stops []models.RouteStop, records []models.AttendanceRecord) Projection {
	out := Projection{TripStatus: trip.Status, Stops: []StopProgress{}}
	if len(stops) == 0 {
		return out
	}

	ordered := append([]models.RouteStop(nil), stops...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].StopOrder < ordered[j].StopOrder })

	index := make(map[int64]int, len(ordered))
	out.Stops = make([]StopProgress, len(ordered))
	for i, s := range ordered {
		out.Stops[i] = StopProgress{Stop: s, Records: []models.AttendanceRecord{}, Status: StopPending}
		if _, dup := index[s.StopID]; !dup {
			index[s.StopID] = i
		}
	}

	for _, rec := range records {
		i, ok := index[rec.Student.StopFor(trip.Direction)]
		if !ok {
			out.Unassigned++
			continue
		}
		out.Stops[i].Records = append(out.Stops[i].Records, rec)
	}

	switch trip.Status {
	case models.TripCompleted:
		for i := range out.Stops {
			out.Stops[i].Status = StopCompleted
		}
	case models.TripInProgress:
		for i := range out.Stops {
			if hasPending(out.Stops[i].Records) {
				out.Stops[i].Status = StopCurrent
				break
			}
			out.Stops[i].Status = StopCompleted
		}
	}
	return out
}

func hasPending(records []models.AttendanceRecord) bool {
	for _, r := range records {
		if r.Status == models.AttendancePending {
			return true
		}
	}
	return false
}
