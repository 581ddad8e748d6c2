package correlation

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSinkObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.Observe(1, MetricJobActivationLatency, 500*time.Millisecond)
	sink.Observe(1, MetricJobLifetime, 2*time.Second)
	sink.Observe(3, MetricWorkflowInstanceExecutionTime, 10*time.Second)
	sink.ObserveUnmatched(1, MetricJobLifetime)
	sink.ObserveUnmatched(1, MetricJobLifetime)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if h := m.GetHistogram(); h != nil {
				byName[mf.GetName()] += float64(h.GetSampleCount())
			}
			if c := m.GetCounter(); c != nil {
				byName[mf.GetName()] += c.GetValue()
			}
		}
	}

	assert.Equal(t, float64(1), byName["flowbroker_job_activation_latency_seconds"])
	assert.Equal(t, float64(1), byName["flowbroker_job_lifetime_seconds"])
	assert.Equal(t, float64(1), byName["flowbroker_workflow_instance_execution_seconds"])
	assert.Equal(t, float64(2), byName["flowbroker_unmatched_lifecycle_events_total"])
}

func TestPrometheusSinkPartitionLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.Observe(1, MetricJobLifetime, time.Second)
	sink.Observe(2, MetricJobLifetime, time.Second)

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "flowbroker_job_lifetime_seconds" {
			continue
		}
		require.Len(t, mf.GetMetric(), 2)
		labels := map[string]bool{}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "partition" {
					labels[lp.GetValue()] = true
				}
			}
		}
		assert.True(t, labels["1"])
		assert.True(t, labels["2"])
	}
}
