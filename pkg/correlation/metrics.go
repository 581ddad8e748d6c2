package correlation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricKind names the latency being observed.
type MetricKind string

const (
	// MetricJobActivationLatency is the time from job creation to a
	// worker activating it. Jobs may be activated more than once.
	MetricJobActivationLatency MetricKind = "job_activation_latency"

	// MetricJobLifetime is the time from job creation to completion.
	MetricJobLifetime MetricKind = "job_lifetime"

	// MetricWorkflowInstanceExecutionTime is the time from a workflow
	// instance starting to it completing.
	MetricWorkflowInstanceExecutionTime MetricKind = "workflow_instance_execution_time"
)

// Sink receives latency observations from the engine. Observations are
// delivered synchronously at the moment of computation; the sink owns
// aggregation and export.
type Sink interface {
	Observe(partitionID int32, kind MetricKind, elapsed time.Duration)

	// ObserveUnmatched counts a milestone or completion whose creation
	// event was never seen (or already evicted). No latency can be
	// computed for it.
	ObserveUnmatched(partitionID int32, kind MetricKind)
}

// PrometheusSink aggregates observations into Prometheus histograms
// labeled by partition.
type PrometheusSink struct {
	jobActivation     *prometheus.HistogramVec
	jobLifetime       *prometheus.HistogramVec
	instanceExecution *prometheus.HistogramVec
	unmatched         *prometheus.CounterVec
}

var latencyBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// NewPrometheusSink registers the latency metrics on the given
// registerer and returns the sink. Pass prometheus.DefaultRegisterer
// for process-wide metrics.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		jobActivation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowbroker_job_activation_latency_seconds",
				Help:    "Time from job creation to first worker activation.",
				Buckets: latencyBuckets,
			},
			[]string{"partition"},
		),
		jobLifetime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowbroker_job_lifetime_seconds",
				Help:    "Time from job creation to completion.",
				Buckets: latencyBuckets,
			},
			[]string{"partition"},
		),
		instanceExecution: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowbroker_workflow_instance_execution_seconds",
				Help:    "Time from workflow instance start to completion.",
				Buckets: latencyBuckets,
			},
			[]string{"partition"},
		),
		unmatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowbroker_unmatched_lifecycle_events_total",
				Help: "Lifecycle events whose creation event was never correlated.",
			},
			[]string{"partition", "kind"},
		),
	}
}

func (s *PrometheusSink) Observe(partitionID int32, kind MetricKind, elapsed time.Duration) {
	partition := strconv.FormatInt(int64(partitionID), 10)
	seconds := elapsed.Seconds()

	switch kind {
	case MetricJobActivationLatency:
		s.jobActivation.WithLabelValues(partition).Observe(seconds)
	case MetricJobLifetime:
		s.jobLifetime.WithLabelValues(partition).Observe(seconds)
	case MetricWorkflowInstanceExecutionTime:
		s.instanceExecution.WithLabelValues(partition).Observe(seconds)
	}
}

func (s *PrometheusSink) ObserveUnmatched(partitionID int32, kind MetricKind) {
	partition := strconv.FormatInt(int64(partitionID), 10)
	s.unmatched.WithLabelValues(partition, string(kind)).Inc()
}
