package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	reg *prometheus.Registry

	TripsStarted   prometheus.Counter
	TripsCompleted prometheus.Counter

	AttendanceChanges   *prometheus.CounterVec // action label: attend|undo
	TransitionConflicts *prometheus.CounterVec // op label: start|complete|attend|undo

	EventsPublished  prometheus.Counter
	EventPublishErrs prometheus.Counter
	NATSConnected    prometheus.Gauge
	PublishDuration  prometheus.Histogram
	RequestDuration  *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_trips_started_total",
			Help: "Trips moved from scheduled to in_progress.",
		}),
		TripsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_trips_completed_total",
			Help: "Trips moved from in_progress to completed.",
		}),
		AttendanceChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_attendance_changes_total",
			Help: "Successful check-ins and undos.",
		}, []string{"action"}),
		TransitionConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_transition_conflicts_total",
			Help: "Transitions refused because a precondition did not hold.",
		}, []string{"op"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_events_published_total",
			Help: "Lifecycle events published to NATS.",
		}),
		EventPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_event_publish_errors_total",
			Help: "Lifecycle events that failed to publish.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schoolbus_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "schoolbus_event_publish_duration_seconds",
			Help:    "Duration to marshal and publish one event.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schoolbus_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.TripsStarted, c.TripsCompleted,
		c.AttendanceChanges, c.TransitionConflicts,
		c.EventsPublished, c.EventPublishErrs, c.NATSConnected, c.PublishDuration,
		c.RequestDuration,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) TripStarted()                    { c.TripsStarted.Inc() }
func (c *Collector) TripCompleted()                  { c.TripsCompleted.Inc() }
func (c *Collector) AttendanceChanged(action string) { c.AttendanceChanges.WithLabelValues(action).Inc() }
func (c *Collector) TransitionConflict(op string)    { c.TransitionConflicts.WithLabelValues(op).Inc() }

func (c *Collector) EventPublished()                { c.EventsPublished.Inc() }
func (c *Collector) EventPublishFailed()            { c.EventPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}

// ObserveRequest records one HTTP request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
