package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"schoolbus/internal/services"
)

type recordedMsg struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []recordedMsg
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.msgs = append(f.msgs, recordedMsg{subject: subject, data: data})
	return f.err
}

type fakeMetrics struct {
	published, failed, observed int
}

func (m *fakeMetrics) EventPublished()              { m.published++ }
func (m *fakeMetrics) EventPublishFailed()          { m.failed++ }
func (m *fakeMetrics) PublishObserve(time.Duration) { m.observed++ }
func (m *fakeMetrics) NATSSetConnected(bool)        {}

func TestPublishEncodesEventOnTripSubject(t *testing.T) {
	c := &fakeConn{}
	m := &fakeMetrics{}
	p := newPublisher(c, "schoolbus.", m)

	ev := services.TripEvent{
		Type:       services.EventStudentAttended,
		TripID:     12,
		DriverID:   7,
		StudentID:  101,
		Status:     "attended",
		OccurredAt: time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(c.msgs))
	}
	if c.msgs[0].subject != "schoolbus.trips.12.student_attended" {
		t.Fatalf("subject = %q", c.msgs[0].subject)
	}

	var decoded map[string]any
	if err := json.Unmarshal(c.msgs[0].data, &decoded); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if decoded["type"] != "student_attended" || decoded["studentId"] != float64(101) {
		t.Fatalf("payload = %v", decoded)
	}
	if m.published != 1 || m.observed != 1 || m.failed != 0 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestPublishOmitsStudentForTripEvents(t *testing.T) {
	c := &fakeConn{}
	p := newPublisher(c, "", nil)
	if err := p.Publish(context.Background(), services.TripEvent{Type: services.EventTripStarted, TripID: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.msgs[0].subject != "schoolbus.trips.3.trip_started" {
		t.Fatalf("subject = %q", c.msgs[0].subject)
	}
	var decoded map[string]any
	_ = json.Unmarshal(c.msgs[0].data, &decoded)
	if _, ok := decoded["studentId"]; ok {
		t.Fatalf("studentId should be omitted: %v", decoded)
	}
}

func TestPublishFailureIsCountedAndReturned(t *testing.T) {
	c := &fakeConn{err: errors.New("nats: connection closed")}
	m := &fakeMetrics{}
	p := newPublisher(c, "fleet", m)

	err := p.Publish(context.Background(), services.TripEvent{Type: services.EventTripCompleted, TripID: 1})
	if err == nil {
		t.Fatalf("expected error")
	}
	if m.failed != 1 || m.published != 0 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestSubjectToken(t *testing.T) {
	cases := map[string]string{
		"":           "_",
		"a.b":        "a_b",
		" trip>* x ": "trip___x",
		"student/in": "student_in",
	}
	for in, want := range cases {
		if got := subjectToken(in); got != want {
			t.Fatalf("subjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoopPublisher(t *testing.T) {
	var p services.EventPublisher = Noop{}
	if err := p.Publish(context.Background(), services.TripEvent{}); err != nil {
		t.Fatalf("noop returned %v", err)
	}
}
