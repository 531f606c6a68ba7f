package middleware

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "routekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "routekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// unmatchedRoute labels navigations that did not resolve to a route.
const unmatchedRoute = "<unmatched>"

type metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration *prometheus.HistogramVec
	navigationErrors   *prometheus.CounterVec
	activeRoutes       prometheus.Gauge
	wsClients          prometheus.Gauge
	wsErrors           *prometheus.CounterVec
}

// globalMetrics is created by the first call to Prometheus.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by matched route and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "status"}),

		navigationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation lifecycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		navigationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_errors_total",
			Help:        "Total number of failed navigations by error type",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "error_type"}),

		activeRoutes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_routes",
			Help:        "Number of route records matched by the current route",
			ConstLabels: config.ConstLabels,
		}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_clients",
			Help:        "Number of connected dev server websocket clients",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects navigation metrics.
//
// Metrics collected:
//   - routekit_navigations_total: navigations by route pattern and status
//   - routekit_navigation_duration_seconds: lifecycle duration histogram
//   - routekit_navigation_errors_total: failed navigations by error type
//   - routekit_active_routes: records matched by the current route
//   - routekit_websocket_clients: dev server websocket clients
//   - routekit_websocket_errors_total: dev server websocket errors
//
// The metrics are registered once per process; later calls reuse them.
//
// Example:
//
//	r := router.New(router.WithMiddleware(
//	    middleware.Prometheus(middleware.WithNamespace("shop")),
//	))
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) router.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return router.MiddlewareFunc(func(nav *router.Navigation, next func() error) error {
		start := time.Now()
		err := next()
		duration := time.Since(start).Seconds()

		route := routeLabel(nav.Result)
		m.navigationDuration.WithLabelValues(route).Observe(duration)

		status := nav.Result.Status.String()
		if err != nil {
			status = router.StatusFailed.String()
			m.navigationErrors.WithLabelValues(route, categorizeError(err)).Inc()
		} else if nav.Result.Route == nil {
			status = "skipped"
		}
		m.navigationsTotal.WithLabelValues(route, status).Inc()

		if err == nil && nav.Result.Route != nil &&
			nav.Result.Status != router.StatusAborted {
			m.activeRoutes.Set(float64(len(nav.Result.Route.Matches)))
		}
		return err
	})
}

// routeLabel uses the most specific matched pattern to keep label
// cardinality bounded by the route table.
func routeLabel(res router.Result) string {
	if res.Route == nil || len(res.Route.Matches) == 0 {
		return unmatchedRoute
	}
	return res.Route.Matches[0].Path()
}

// categorizeError maps an error to a low-cardinality label.
func categorizeError(err error) string {
	switch rkerrors.Code(err) {
	case "E040":
		return "hook_error"
	case "E041":
		return "hook_panic"
	case "E042":
		return "invalid_target"
	case "E043":
		return "cancelled"
	case "E060":
		return "transition"
	default:
		return "internal"
	}
}

// RecordWebSocketConnect records a new dev server websocket client.
func RecordWebSocketConnect() {
	if m := current(); m != nil {
		m.wsClients.Inc()
	}
}

// RecordWebSocketDisconnect records a dev server websocket client leaving.
func RecordWebSocketDisconnect() {
	if m := current(); m != nil {
		m.wsClients.Dec()
	}
}

// RecordWebSocketError records a dev server websocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}

// Collector exposes the metrics for custom registrations and tests.
type Collector struct {
	NavigationsTotal   *prometheus.CounterVec
	NavigationDuration *prometheus.HistogramVec
	NavigationErrors   *prometheus.CounterVec
	ActiveRoutes       prometheus.Gauge
	WebSocketClients   prometheus.Gauge
	WebSocketErrors    *prometheus.CounterVec
}

// GetMetrics returns the metrics, or nil if Prometheus was never called.
func GetMetrics() *Collector {
	m := current()
	if m == nil {
		return nil
	}
	return &Collector{
		NavigationsTotal:   m.navigationsTotal,
		NavigationDuration: m.navigationDuration,
		NavigationErrors:   m.navigationErrors,
		ActiveRoutes:       m.activeRoutes,
		WebSocketClients:   m.wsClients,
		WebSocketErrors:    m.wsErrors,
	}
}
