package observability

import (
	"time"

	"talentsearch/internal/config"
)

// ObservabilityConfig is the resolved telemetry setup for one process
type ObservabilityConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string

	// Tracing
	TracingEnabled bool
	SampleRate     float64

	// Metrics
	MetricsEnabled     bool
	CollectionInterval time.Duration
	CustomMetrics      config.CustomMetricsConfig

	// Exporters
	ConsoleOutput bool
	PrettyPrint   bool
	OTLP          config.OTLPConfig
	Prometheus    PrometheusConfig
}

// GetObservabilityConfig resolves the observability section of cfg. The
// application version is used when no service version is configured.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "talentsearch",
			ServiceVersion: version,
			CustomMetrics:  defaultCustomMetrics(),
		}
	}

	obs := cfg.Observability
	resolved := ObservabilityConfig{
		Enabled:            obs.Enabled,
		ServiceName:        obs.ServiceName,
		ServiceVersion:     obs.ServiceVersion,
		ServiceInstance:    obs.ServiceInstance,
		TracingEnabled:     obs.Tracing.Enabled,
		SampleRate:         obs.SampleRate,
		MetricsEnabled:     obs.Metrics.Enabled,
		CollectionInterval: obs.Metrics.CollectionInterval,
		CustomMetrics:      obs.CustomMetrics,
		ConsoleOutput:      obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:        obs.Console.PrettyPrint,
		OTLP:               obs.OTLP,
		Prometheus: PrometheusConfig{
			Enabled:  obs.Prometheus.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
	}

	if resolved.ServiceName == "" {
		resolved.ServiceName = "talentsearch"
	}
	if resolved.ServiceVersion == "" {
		resolved.ServiceVersion = version
	}
	if obs.Tracing.SampleRate > 0 {
		resolved.SampleRate = obs.Tracing.SampleRate
	}
	return resolved
}

func (c ObservabilityConfig) instanceID() string {
	if c.ServiceInstance != "" {
		return c.ServiceInstance
	}
	return c.ServiceName + "-1"
}

func (c ObservabilityConfig) interval() time.Duration {
	if c.CollectionInterval > 0 {
		return c.CollectionInterval
	}
	return 15 * time.Second
}
