package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"schoolbus/internal/services"

	"github.com/nats-io/nats.go"
)

// PublisherMetrics is satisfied by metrics.Collector.
type PublisherMetrics interface {
	EventPublished()
	EventPublishFailed()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

type conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher emits trip lifecycle events as JSON on
// <prefix>.trips.<tripId>.<type>.
type NATSPublisher struct {
	nc      conn
	closer  *nats.Conn
	prefix  string
	metrics PublisherMetrics
}

func NewNATSPublisher(url, prefix string, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("schoolbus-api"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("[EVENTS] action=nats_disconnected err=%v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("[EVENTS] action=nats_reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("[EVENTS] action=nats_closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	p := newPublisher(nc, prefix, m)
	p.closer = nc
	return p, nil
}

func newPublisher(c conn, prefix string, m PublisherMetrics) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "schoolbus"
	}
	return &NATSPublisher{nc: c, prefix: prefix, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.closer != nil {
		_ = p.closer.Drain()
		p.closer.Close()
	}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(ev services.TripEvent) string {
	return fmt.Sprintf("%s.trips.%d.%s", p.prefix, ev.TripID, subjectToken(ev.Type))
}

func (p *NATSPublisher) Publish(ctx context.Context, ev services.TripEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	start := time.Now()
	err = p.nc.Publish(p.Subject(ev), b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.EventPublishFailed()
		} else {
			p.metrics.EventPublished()
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", p.Subject(ev), err)
	}
	return nil
}

// Noop is used when no NATS_URL is configured.
type Noop struct{}

func (Noop) Publish(context.Context, services.TripEvent) error { return nil }

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*' or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
