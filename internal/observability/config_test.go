package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentsearch/internal/config"
)

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{Observability: config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "talentsearch",
		SampleRate:  1.0,
		Tracing:     config.TracingConfig{Enabled: true, SampleRate: 0.25},
		Metrics:     config.MetricsConfig{Enabled: true, CollectionInterval: 5 * time.Second},
		Console:     config.ConsoleConfig{Enabled: true, PrettyPrint: true},
		Prometheus:  config.PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9464"},
	}}

	resolved := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", resolved.ServiceVersion)
	assert.Equal(t, 0.25, resolved.SampleRate)
	assert.True(t, resolved.ConsoleOutput)
	assert.Equal(t, 5*time.Second, resolved.interval())
	assert.Equal(t, "9464", resolved.Prometheus.Port)
	assert.Equal(t, "talentsearch-1", resolved.instanceID())

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, 15*time.Second, fallback.interval())
}

func TestEnabledManagerWithoutExporters(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{
		Enabled:       true,
		ServiceName:   "talentsearch-test",
		SampleRate:    1.0,
		CustomMetrics: defaultCustomMetrics(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = om.Shutdown(context.Background()) })

	assert.NotNil(t, om.GetMetrics().PagesServed)

	_, span := om.Tracer("test").Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	om.SearchRecorder().RecordPageServed(context.Background(), "computed")
	assert.NoError(t, om.Shutdown(context.Background()))
	assert.NoError(t, om.Shutdown(context.Background()), "second shutdown is a no-op")
}
