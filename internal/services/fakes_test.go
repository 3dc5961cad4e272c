package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"schoolbus/internal/domain"
	"schoolbus/internal/domain/models"
	"schoolbus/internal/utils"
)

var wib = time.FixedZone("WIB", 7*3600)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func clockAt(hour, minute int) *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 2, hour, minute, 0, 0, wib)}
}

var today = time.Date(2026, 3, 2, 0, 0, 0, 0, wib)

// memStore is an in-memory store honoring the compare-and-set contract.
type memStore struct {
	mu         sync.Mutex
	trips      map[int64]models.Trip
	attendance map[[2]int64]models.AttendanceRecord
	students   map[int64]models.Student
	stops      map[int64][]models.RouteStop
}

func newMemStore() *memStore {
	return &memStore{
		trips:      map[int64]models.Trip{},
		attendance: map[[2]int64]models.AttendanceRecord{},
		students:   map[int64]models.Student{},
		stops:      map[int64][]models.RouteStop{},
	}
}

func (m *memStore) addTrip(t models.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.TripDate.IsZero() {
		t.TripDate = today
	}
	if t.Status == "" {
		t.Status = models.TripScheduled
	}
	m.trips[t.ID] = t
}

func (m *memStore) addStudent(tripID int64, s models.Student, status models.AttendanceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
	rec := models.AttendanceRecord{TripID: tripID, StudentID: s.ID, Status: status}
	if status == models.AttendanceAttended {
		at := today.Add(7 * time.Hour)
		rec.AttendedAt = &at
	}
	m.attendance[[2]int64{tripID, s.ID}] = rec
}

func (m *memStore) record(tripID, studentID int64) models.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attendance[[2]int64{tripID, studentID}]
}

func (m *memStore) trip(id int64) models.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trips[id]
}

func shiftRank(t models.Trip) int {
	rank := 0
	if t.Session != models.SessionMorning {
		rank += 2
	}
	if t.Direction != models.DirectionPickup {
		rank++
	}
	return rank
}

func (m *memStore) sortedTrips() []models.Trip {
	out := make([]models.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if shiftRank(out[i]) != shiftRank(out[j]) {
			return shiftRank(out[i]) < shiftRank(out[j])
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) FindByShift(_ context.Context, driverID int64, date time.Time, shift domain.Shift) (models.Trip, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.sortedTrips() {
		if t.DriverID == driverID && utils.FormatDate(t.TripDate) == utils.FormatDate(date) &&
			t.Direction == shift.Direction && t.Session == shift.Session {
			return t, true, nil
		}
	}
	return models.Trip{}, false, nil
}

func (m *memStore) FindFirstByStatus(_ context.Context, driverID int64, date time.Time, status models.TripStatus) (models.Trip, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.sortedTrips() {
		if t.DriverID == driverID && utils.FormatDate(t.TripDate) == utils.FormatDate(date) && t.Status == status {
			return t, true, nil
		}
	}
	return models.Trip{}, false, nil
}

func (m *memStore) GetByID(_ context.Context, tripID int64) (models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (m *memStore) MarkStarted(_ context.Context, tripID int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok || t.Status != models.TripScheduled {
		return false, nil
	}
	t.Status = models.TripInProgress
	t.ActualStart = &at
	m.trips[tripID] = t
	return true, nil
}

func (m *memStore) MarkCompleted(_ context.Context, tripID int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok || t.Status != models.TripInProgress {
		return false, nil
	}
	for k, r := range m.attendance {
		if k[0] == tripID && r.Status == models.AttendancePending {
			return false, nil
		}
	}
	t.Status = models.TripCompleted
	t.ActualEnd = &at
	m.trips[tripID] = t
	return true, nil
}

func (m *memStore) withStudent(r models.AttendanceRecord) models.AttendanceRecord {
	r.Student = m.students[r.StudentID]
	return r
}

func (m *memStore) Get(_ context.Context, tripID, studentID int64) (models.AttendanceRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.attendance[[2]int64{tripID, studentID}]
	if !ok {
		return models.AttendanceRecord{}, false, nil
	}
	return m.withStudent(r), true, nil
}

func (m *memStore) ListByTrip(_ context.Context, tripID int64) ([]models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AttendanceRecord{}
	for k, r := range m.attendance {
		if k[0] == tripID {
			out = append(out, m.withStudent(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Student.Name != out[j].Student.Name {
			return out[i].Student.Name < out[j].Student.Name
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (m *memStore) CountByStatus(_ context.Context, tripID int64, status models.AttendanceStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, r := range m.attendance {
		if k[0] == tripID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkAttended(_ context.Context, tripID, studentID int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]int64{tripID, studentID}
	r, ok := m.attendance[k]
	if !ok || r.Status != models.AttendancePending {
		return false, nil
	}
	r.Status = models.AttendanceAttended
	r.AttendedAt = &at
	m.attendance[k] = r
	return true, nil
}

func (m *memStore) MarkPending(_ context.Context, tripID, studentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]int64{tripID, studentID}
	r, ok := m.attendance[k]
	if !ok || r.Status != models.AttendanceAttended {
		return false, nil
	}
	r.Status = models.AttendancePending
	r.AttendedAt = nil
	m.attendance[k] = r
	return true, nil
}

func (m *memStore) ListByRoute(_ context.Context, routeID int64) ([]models.RouteStop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RouteStop(nil), m.stops[routeID]...), nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []TripEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev TripEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type countingRecorder struct {
	started, completed int
	changes            map[string]int
	conflicts          map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{changes: map[string]int{}, conflicts: map[string]int{}}
}

func (r *countingRecorder) TripStarted()                    { r.started++ }
func (r *countingRecorder) TripCompleted()                  { r.completed++ }
func (r *countingRecorder) AttendanceChanged(action string) { r.changes[action]++ }
func (r *countingRecorder) TransitionConflict(op string)    { r.conflicts[op]++ }

func int64p(v int64) *int64 { return &v }
