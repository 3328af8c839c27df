package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for streamd.
type Metrics struct {
	config MetricsConfig

	// Parse metrics
	parses        *prometheus.CounterVec
	parseDuration *prometheus.HistogramVec

	// Component metrics
	componentsConfigured *prometheus.CounterVec
	configureDuration    *prometheus.HistogramVec
	unusedParameters     *prometheus.CounterVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	// Reload metrics
	reloads         *prometheus.CounterVec
	lastReloadOK    prometheus.Gauge
	componentsTotal prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		parses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_parses_total",
				Help:      "Total number of configuration parses",
			},
			[]string{"status"},
		),
		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "config_parse_duration_seconds",
				Help:      "Duration of configuration parsing in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		componentsConfigured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_configured_total",
				Help:      "Total number of components configured",
			},
			[]string{"kind", "type", "status"},
		),
		configureDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "component_configure_duration_seconds",
				Help:      "Duration of component configuration in seconds",
				Buckets:   buckets,
			},
			[]string{"kind", "type"},
		),
		unusedParameters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unused_parameters_total",
				Help:      "Total number of configuration parameters nothing read",
			},
			[]string{"block"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_errors_total",
				Help:      "Total number of configuration errors by kind",
			},
			[]string{"kind"},
		),

		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
			[]string{"status"},
		),
		lastReloadOK: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_successful",
				Help:      "Whether the last configuration reload succeeded (1) or failed (0)",
			},
		),
		componentsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "components",
				Help:      "Current number of configured components",
			},
		),
	}

	registry.MustRegister(
		m.parses,
		m.parseDuration,
		m.componentsConfigured,
		m.configureDuration,
		m.unusedParameters,
		m.errorsByKind,
		m.reloads,
		m.lastReloadOK,
		m.componentsTotal,
	)

	return m, nil
}

// RecordParse records a configuration parse with its outcome and duration.
func (m *Metrics) RecordParse(status string, duration time.Duration) {
	if m.parses == nil {
		return
	}
	m.parses.WithLabelValues(status).Inc()
	m.parseDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordComponentConfigured records the configuration of one component.
func (m *Metrics) RecordComponentConfigured(kind, typeName, status string, duration time.Duration) {
	if m.componentsConfigured == nil {
		return
	}
	m.componentsConfigured.WithLabelValues(kind, typeName, status).Inc()
	m.configureDuration.WithLabelValues(kind, typeName).Observe(duration.Seconds())
}

// RecordUnusedParameter records a parameter that no component read.
func (m *Metrics) RecordUnusedParameter(block string) {
	if m.unusedParameters == nil {
		return
	}
	m.unusedParameters.WithLabelValues(block).Inc()
}

// RecordError records a configuration error by kind.
func (m *Metrics) RecordError(kind string) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// RecordReload records a configuration reload.
func (m *Metrics) RecordReload(success bool) {
	if m.reloads == nil {
		return
	}
	status := "success"
	value := 1.0
	if !success {
		status = "failure"
		value = 0.0
	}
	m.reloads.WithLabelValues(status).Inc()
	m.lastReloadOK.Set(value)
}

// SetComponentCount sets the current number of configured components.
func (m *Metrics) SetComponentCount(count float64) {
	if m.componentsTotal == nil {
		return
	}
	m.componentsTotal.Set(count)
}

// Registry returns the underlying Prometheus registry, or nil when metrics
// are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
