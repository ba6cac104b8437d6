package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the sync core. Consumers
// tolerate a nil *Metrics so tests can skip registration.
type Metrics struct {
	MutationsTotal     *prometheus.CounterVec
	ResyncsTotal       prometheus.Counter
	ResyncFetchFailed  *prometheus.CounterVec
	ResyncDuration     prometheus.Histogram
	AuditDropped       prometheus.Counter
	AuditAppendFailed  prometheus.Counter
	InvalidationsTotal *prometheus.CounterVec
}

// New creates and registers all instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		MutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "axis_mutations_total",
			Help: "Mutation coordinator operations by name and outcome",
		}, []string{"operation", "outcome"}),
		ResyncsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "axis_resyncs_total",
			Help: "Full resynchronization cycles executed",
		}),
		ResyncFetchFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "axis_resync_fetch_failures_total",
			Help: "Per-collection fetch failures during resync",
		}, []string{"collection"}),
		ResyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "axis_resync_duration_seconds",
			Help:    "Wall time of a full resync cycle",
			Buckets: prometheus.DefBuckets,
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "axis_audit_events_dropped_total",
			Help: "Audit events dropped because the queue was full",
		}),
		AuditAppendFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "axis_audit_append_failures_total",
			Help: "Audit appends the remote store rejected",
		}),
		InvalidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "axis_invalidations_total",
			Help: "Push-channel invalidation events received by collection",
		}, []string{"collection"}),
	}
}

func (m *Metrics) ObserveMutation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MutationsTotal.WithLabelValues(operation, outcome).Inc()
}
