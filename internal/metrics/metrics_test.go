package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("POST", "/", 200, 120*time.Millisecond)
	m.ObserveRequest("POST", "/", 200, 80*time.Millisecond)
	m.ObserveRequest("POST", "/", 400, time.Millisecond)
	m.ObserveGeneration("echo", OutcomeSuccess)
	m.ObserveGeneration("echo", OutcomeError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("echo", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("echo", OutcomeError)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["llm_api_http_request_duration_seconds"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.ObserveGeneration("echo", OutcomeSuccess)
	})
}
