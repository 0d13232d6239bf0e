// Package metrics holds the Prometheus collectors for the push pipeline and
// the development server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectAttempts     *prometheus.CounterVec
	ReconnectsScheduled prometheus.Counter
	ReconnectsExhausted prometheus.Counter
	MessagesReceived    *prometheus.CounterVec
	FramesDropped       *prometheus.CounterVec
	Mutations           *prometheus.CounterVec
	Rollbacks           *prometheus.CounterVec
	Snapshots           *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Passing a fresh prometheus.NewRegistry()
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConnectAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "push_connect_attempts_total",
			Help: "Push channel connection attempts by result.",
		}, []string{"result"}),
		ReconnectsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "push_reconnects_scheduled_total",
			Help: "Reconnects scheduled after an abnormal close.",
		}),
		ReconnectsExhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "push_reconnects_exhausted_total",
			Help: "Times the reconnect budget ran out.",
		}),
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Name: "push_messages_received_total",
			Help: "Decoded server messages by type.",
		}, []string{"type"}),
		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "push_frames_dropped_total",
			Help: "Inbound frames dropped by reason.",
		}, []string{"reason"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_mutations_total",
			Help: "Optimistic mutations by operation and delivery channel.",
		}, []string{"operation", "channel"}),
		Rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_rollbacks_total",
			Help: "Optimistic mutations invalidated after both channels failed.",
		}, []string{"operation"}),
		Snapshots: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_snapshots_total",
			Help: "Snapshot fetches by result.",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
