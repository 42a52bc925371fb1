// Package metrics exposes client-side Prometheus collectors for the watch session.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the metrics recorded by the watch pipeline
type Collector interface {
	// Connection metrics
	SocketOpened()
	SocketClosed(code int)
	ReconnectScheduled(delay time.Duration)
	QueueDepth(n int)

	// Routing metrics
	MessageReceived(messageType string)
	MessageDropped(reason string)

	// Playback metrics
	StateApplied(kind string)
	StateRejected()
	AdvanceRequested(result string)

	// Handler returns an HTTP handler for the metrics endpoint
	Handler() http.Handler
}

// PrometheusCollector implements Collector on its own registry
type PrometheusCollector struct {
	registry *prometheus.Registry

	socketOpens     prometheus.Counter
	socketCloses    *prometheus.CounterVec
	reconnectDelays prometheus.Histogram
	queueDepth      prometheus.Gauge

	messagesReceived *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec

	statesApplied  *prometheus.CounterVec
	statesRejected prometheus.Counter
	advances       *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector registered on a fresh registry
func NewPrometheusCollector() *PrometheusCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &PrometheusCollector{
		registry: reg,

		socketOpens: factory.NewCounter(prometheus.CounterOpts{
			Name: "plst4_socket_opens_total",
			Help: "Total number of websocket connections opened",
		}),

		socketCloses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plst4_socket_closes_total",
				Help: "Total number of websocket closures by close code",
			},
			[]string{"code"},
		),

		reconnectDelays: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "plst4_socket_reconnect_delay_seconds",
			Help:    "Delay before each reconnect attempt",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plst4_socket_queue_depth",
			Help: "Number of outbound messages waiting for an open connection",
		}),

		messagesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plst4_messages_received_total",
				Help: "Total number of inbound frames by type",
			},
			[]string{"message_type"},
		),

		messagesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plst4_messages_dropped_total",
				Help: "Total number of inbound frames skipped",
			},
			[]string{"reason"},
		),

		statesApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plst4_states_applied_total",
				Help: "Total number of media states applied by kind",
			},
			[]string{"kind"},
		),

		statesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "plst4_states_rejected_total",
			Help: "Total number of stale or duplicate media states ignored",
		}),

		advances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plst4_advance_requests_total",
				Help: "Total number of advance requests by result",
			},
			[]string{"result"},
		),
	}
}

func (c *PrometheusCollector) SocketOpened() {
	c.socketOpens.Inc()
}

func (c *PrometheusCollector) SocketClosed(code int) {
	c.socketCloses.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (c *PrometheusCollector) ReconnectScheduled(delay time.Duration) {
	c.reconnectDelays.Observe(delay.Seconds())
}

func (c *PrometheusCollector) QueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

func (c *PrometheusCollector) MessageReceived(messageType string) {
	c.messagesReceived.WithLabelValues(messageType).Inc()
}

func (c *PrometheusCollector) MessageDropped(reason string) {
	c.messagesDropped.WithLabelValues(reason).Inc()
}

func (c *PrometheusCollector) StateApplied(kind string) {
	c.statesApplied.WithLabelValues(kind).Inc()
}

func (c *PrometheusCollector) StateRejected() {
	c.statesRejected.Inc()
}

func (c *PrometheusCollector) AdvanceRequested(result string) {
	c.advances.WithLabelValues(result).Inc()
}

// Handler serves this collector's registry only
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Nop discards everything. It is the default for every component.
type Nop struct{}

func (Nop) SocketOpened()                    {}
func (Nop) SocketClosed(int)                 {}
func (Nop) ReconnectScheduled(time.Duration) {}
func (Nop) QueueDepth(int)                   {}
func (Nop) MessageReceived(string)           {}
func (Nop) MessageDropped(string)            {}
func (Nop) StateApplied(string)              {}
func (Nop) StateRejected()                   {}
func (Nop) AdvanceRequested(string)          {}
func (Nop) Handler() http.Handler            { return http.NotFoundHandler() }
