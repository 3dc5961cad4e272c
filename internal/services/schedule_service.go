package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

// ScheduleService is the driver-facing facade over the trip core. It holds no
// state of its own; every call resolves the trip, delegates, and shapes the
// response in the civil location.
type ScheduleService struct {
	Trips      TripStore
	Attendance AttendanceStore
	RouteStops RouteStopStore
	Clock      utils.Clock
	Location   *time.Location

	// Optional.
	Events  EventPublisher
	Metrics Recorder
}

type SummaryCounts struct {
	Total      int `json:"total"`
	PickedUp   int `json:"pickedUp"`
	DroppedOff int `json:"droppedOff"`
	Remaining  int `json:"remaining"`
}

type TodaySummary struct {
	TripID    int64         `json:"tripId"`
	Date      string        `json:"date"`
	Session   string        `json:"session"`
	Direction string        `json:"direction"`
	Status    string        `json:"status"`
	RouteName string        `json:"routeName"`
	StartTime *string       `json:"startTime"`
	BusLabel  string        `json:"busLabel"`
	Counts    SummaryCounts `json:"counts"`
}

type RouteStopView struct {
	StopID       int64   `json:"stopId"`
	Order        int     `json:"order"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	StudentCount int     `json:"studentCount"`
	Status       string  `json:"status"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type ActiveRoute struct {
	TripID    int64           `json:"tripId"`
	Status    string          `json:"status"`
	Direction string          `json:"direction"`
	Session   string          `json:"session"`
	RouteName string          `json:"routeName"`
	StartTime *string         `json:"startTime"`
	EndTime   *string         `json:"endTime"`
	Stops     []RouteStopView `json:"stops"`
}

type TripTransitionResult struct {
	TripID  int64  `json:"tripId"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type RosterStats struct {
	Total    int `json:"total"`
	Attended int `json:"attended"`
	Pending  int `json:"pending"`
	Absent   int `json:"absent"`
}

type RosterEntry struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	Status     string  `json:"status"`
	AttendedAt *string `json:"attendedAt"`
}

type StudentRoster struct {
	TripID    int64         `json:"tripId"`
	Direction string        `json:"direction"`
	Session   string        `json:"session"`
	Status    string        `json:"status"`
	Stats     RosterStats   `json:"stats"`
	Students  []RosterEntry `json:"students"`
}

type AttendanceResult struct {
	TripID     int64   `json:"tripId"`
	StudentID  int64   `json:"studentId"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	AttendedAt *string `json:"attendedAt"`
}

func (s ScheduleService) locator() TripLocator {
	return TripLocator{Trips: s.Trips, Clock: s.Clock}
}

func (s ScheduleService) stateMachine() TripStateMachine {
	return TripStateMachine{Trips: s.Trips, Attendance: s.Attendance, Clock: s.Clock}
}

func (s ScheduleService) tracker() AttendanceTracker {
	return AttendanceTracker{Attendance: s.Attendance, Clock: s.Clock}
}

// TodaySummary with no filter uses the implicit lookup. When every trip of
// the day is finished it falls back to the shift implied by the time of day,
// so the driver still sees the trip they just completed.
func (s ScheduleService) TodaySummary(ctx context.Context, driverID int64, filter domain.ShiftFilter) (TodaySummary, error) {
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if _, explicit := filter.(domain.Explicit); !explicit && domain.IsNotFound(err) {
		shift, rerr := domain.ResolveShift("", "", s.Clock.Now())
		if rerr != nil {
			return TodaySummary{}, rerr
		}
		t, ferr := s.locator().FindForShift(ctx, driverID, shift)
		switch {
		case ferr == nil:
			trip, err = t, nil
		case !domain.IsNotFound(ferr):
			return TodaySummary{}, ferr
		}
	}
	if err != nil {
		return TodaySummary{}, err
	}
	records, err := s.Attendance.ListByTrip(ctx, trip.ID)
	if err != nil {
		return TodaySummary{}, err
	}

	counts := SummaryCounts{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case models.AttendancePending:
			counts.Remaining++
		case models.AttendanceAttended:
			if trip.Direction == models.DirectionDropoff {
				counts.DroppedOff++
			} else {
				counts.PickedUp++
			}
		}
	}

	return TodaySummary{
		TripID:    trip.ID,
		Date:      utils.FormatDate(trip.TripDate),
		Session:   trip.Session.Label(),
		Direction: string(trip.Direction),
		Status:    string(trip.Status),
		RouteName: trip.RouteName,
		StartTime: utils.FormatClock(trip.ActualStart, s.Location),
		BusLabel:  trip.BusLabel,
		Counts:    counts,
	}, nil
}

// ActiveRoute returns the trip's stops with their progress. A trip without a
// route yields an empty stop list.
func (s ScheduleService) ActiveRoute(ctx context.Context, driverID int64, filter domain.ShiftFilter) (ActiveRoute, error) {
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if err != nil {
		return ActiveRoute{}, err
	}
	proj, err := s.project(ctx, trip)
	if err != nil {
		return ActiveRoute{}, err
	}

	out := ActiveRoute{
		TripID:    trip.ID,
		Status:    string(proj.TripStatus),
		Direction: string(trip.Direction),
		Session:   string(trip.Session),
		RouteName: trip.RouteName,
		StartTime: utils.FormatClock(trip.ActualStart, s.Location),
		EndTime:   utils.FormatClock(trip.ActualEnd, s.Location),
		Stops:     make([]RouteStopView, 0, len(proj.Stops)),
	}
	for _, p := range proj.Stops {
		out.Stops = append(out.Stops, RouteStopView{
			StopID:       p.Stop.StopID,
			Order:        p.Stop.StopOrder,
			Name:         p.Stop.Name,
			Address:      p.Stop.Address,
			StudentCount: p.StudentCount(),
			Status:       string(p.Status),
			Latitude:     p.Stop.Latitude,
			Longitude:    p.Stop.Longitude,
		})
	}
	return out, nil
}

func (s ScheduleService) project(ctx context.Context, trip models.Trip) (Projection, error) {
	if !trip.HasRoute() {
		return ProjectStops(trip, nil, nil), nil
	}
	stops, err := s.RouteStops.ListByRoute(ctx, *trip.RouteID)
	if err != nil {
		return Projection{}, err
	}
	records, err := s.Attendance.ListByTrip(ctx, trip.ID)
	if err != nil {
		return Projection{}, err
	}
	proj := ProjectStops(trip, stops, records)
	if proj.Unassigned > 0 {
		log.Printf("[SCHEDULE] data_integrity trip_id=%d route_id=%d students_off_route=%d", trip.ID, *trip.RouteID, proj.Unassigned)
	}
	return proj, nil
}

func (s ScheduleService) StartTrip(ctx context.Context, driverID int64, filter domain.ShiftFilter) (TripTransitionResult, error) {
	reqID := utils.RequestIDFrom(ctx)
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if err != nil {
		return TripTransitionResult{}, err
	}

	updated, err := s.stateMachine().Start(ctx, trip)
	if err != nil {
		s.conflict("start", err)
		utils.LogEvent(reqID, "schedule", "start_trip_error", fmt.Sprintf("trip_id=%d status=%s err=%v", trip.ID, updated.Status, err))
		return TripTransitionResult{}, err
	}

	utils.LogEvent(reqID, "schedule", "start_trip", fmt.Sprintf("trip_id=%d driver_id=%d", trip.ID, driverID))
	if s.Metrics != nil {
		s.Metrics.TripStarted()
	}
	s.publish(ctx, TripEvent{Type: EventTripStarted, TripID: trip.ID, DriverID: driverID, Status: string(updated.Status), OccurredAt: *updated.ActualStart})

	return TripTransitionResult{TripID: trip.ID, Message: "trip started", Status: string(updated.Status)}, nil
}

func (s ScheduleService) CompleteTrip(ctx context.Context, driverID int64, filter domain.ShiftFilter) (TripTransitionResult, error) {
	reqID := utils.RequestIDFrom(ctx)
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if err != nil {
		return TripTransitionResult{}, err
	}

	updated, err := s.stateMachine().Complete(ctx, trip)
	if err != nil {
		s.conflict("complete", err)
		pending, _ := domain.PendingCount(err)
		utils.LogEvent(reqID, "schedule", "complete_trip_error", fmt.Sprintf("trip_id=%d status=%s pending=%d err=%v", trip.ID, updated.Status, pending, err))
		return TripTransitionResult{}, err
	}

	utils.LogEvent(reqID, "schedule", "complete_trip", fmt.Sprintf("trip_id=%d driver_id=%d", trip.ID, driverID))
	if s.Metrics != nil {
		s.Metrics.TripCompleted()
	}
	s.publish(ctx, TripEvent{Type: EventTripCompleted, TripID: trip.ID, DriverID: driverID, Status: string(updated.Status), OccurredAt: *updated.ActualEnd})

	return TripTransitionResult{TripID: trip.ID, Message: "trip completed", Status: string(updated.Status)}, nil
}

// StudentRoster lists the trip's students with the address relevant to its
// direction.
func (s ScheduleService) StudentRoster(ctx context.Context, driverID int64, filter domain.ShiftFilter) (StudentRoster, error) {
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if err != nil {
		return StudentRoster{}, err
	}
	records, err := s.Attendance.ListByTrip(ctx, trip.ID)
	if err != nil {
		return StudentRoster{}, err
	}

	out := StudentRoster{
		TripID:    trip.ID,
		Direction: string(trip.Direction),
		Session:   string(trip.Session),
		Status:    string(trip.Status),
		Stats:     RosterStats{Total: len(records)},
		Students:  make([]RosterEntry, 0, len(records)),
	}
	for _, r := range records {
		switch r.Status {
		case models.AttendanceAttended:
			out.Stats.Attended++
		case models.AttendancePending:
			out.Stats.Pending++
		case models.AttendanceAbsent:
			out.Stats.Absent++
		}
		out.Students = append(out.Students, RosterEntry{
			ID:         r.StudentID,
			Name:       r.Student.Name,
			Address:    r.Student.AddressFor(trip.Direction),
			Status:     string(r.Status),
			AttendedAt: utils.FormatTimestamp(r.AttendedAt, s.Location),
		})
	}
	return out, nil
}

func (s ScheduleService) Attend(ctx context.Context, driverID, studentID int64, filter domain.ShiftFilter) (AttendanceResult, error) {
	return s.changeAttendance(ctx, driverID, studentID, filter, "attend")
}

func (s ScheduleService) UndoAttend(ctx context.Context, driverID, studentID int64, filter domain.ShiftFilter) (AttendanceResult, error) {
	return s.changeAttendance(ctx, driverID, studentID, filter, "undo")
}

func (s ScheduleService) changeAttendance(ctx context.Context, driverID, studentID int64, filter domain.ShiftFilter, action string) (AttendanceResult, error) {
	reqID := utils.RequestIDFrom(ctx)
	if studentID <= 0 {
		return AttendanceResult{}, domain.ValidationError{Field: "studentId", Msg: "must be a positive integer"}
	}
	trip, err := s.locator().Locate(ctx, driverID, filter)
	if err != nil {
		return AttendanceResult{}, err
	}
	if trip.Status == models.TripCompleted || trip.Status == models.TripCancelled {
		err := domain.ConflictError{Msg: "trip already finished or cancelled"}
		s.conflict(action, err)
		utils.LogEvent(reqID, "schedule", action+"_error", fmt.Sprintf("trip_id=%d student_id=%d status=%s", trip.ID, studentID, trip.Status))
		return AttendanceResult{}, err
	}

	var (
		rec       models.AttendanceRecord
		eventType string
	)
	if action == "attend" {
		rec, err = s.tracker().CheckIn(ctx, trip.ID, studentID)
		eventType = EventStudentAttended
	} else {
		rec, err = s.tracker().Undo(ctx, trip.ID, studentID)
		eventType = EventAttendanceUndo
	}
	if err != nil {
		s.conflict(action, err)
		utils.LogEvent(reqID, "schedule", action+"_error", fmt.Sprintf("trip_id=%d student_id=%d err=%v", trip.ID, studentID, err))
		return AttendanceResult{}, err
	}

	utils.LogEvent(reqID, "schedule", action, fmt.Sprintf("trip_id=%d student_id=%d status=%s", trip.ID, studentID, rec.Status))
	if s.Metrics != nil {
		s.Metrics.AttendanceChanged(action)
	}
	occurred := s.Clock.Now()
	if rec.AttendedAt != nil {
		occurred = *rec.AttendedAt
	}
	s.publish(ctx, TripEvent{Type: eventType, TripID: trip.ID, DriverID: driverID, StudentID: studentID, Status: string(rec.Status), OccurredAt: occurred})

	return AttendanceResult{
		TripID:     trip.ID,
		StudentID:  studentID,
		Name:       rec.Student.Name,
		Status:     string(rec.Status),
		AttendedAt: utils.FormatTimestamp(rec.AttendedAt, s.Location),
	}, nil
}

func (s ScheduleService) conflict(op string, err error) {
	if s.Metrics != nil && domain.IsConflict(err) {
		s.Metrics.TransitionConflict(op)
	}
}

// publish is best effort; the transition is already committed.
func (s ScheduleService) publish(ctx context.Context, ev TripEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		utils.LogEvent(utils.RequestIDFrom(ctx), "events", "publish_error", fmt.Sprintf("type=%s trip_id=%d err=%v", ev.Type, ev.TripID, err))
	}
}
