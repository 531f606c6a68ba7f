package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/router"
)

func resetGlobalMetricsForTest() {
	globalMetricsMu.Lock()
	globalMetrics = nil
	globalMetricsMu.Unlock()
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func newMetricsRouter(t *testing.T) *router.Router {
	t.Helper()
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	r := router.New(router.WithMiddleware(Prometheus(WithRegistry(reg))))
	r.MustMap(
		router.Definition{Path: "/blog/:id"},
		router.Definition{
			Path: "/shop",
			Children: []router.Definition{
				{Path: "cart"},
			},
		},
		router.Definition{Path: "/fail", Init: func(to, from *router.Route) error {
			return errors.New("boom")
		}},
		router.Definition{Path: "/locked", Before: func(to, from *router.Route, next router.Next) error {
			next(false)
			return nil
		}},
	)
	return r
}

func TestPrometheusMiddleware_RecordsNavigations(t *testing.T) {
	t.Run("completed navigation is labelled with the route pattern", func(t *testing.T) {
		r := newMetricsRouter(t)
		if _, err := r.Navigate(context.Background(), "/blog/1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c := GetMetrics()
		if c == nil {
			t.Fatal("expected GetMetrics to return collector after initialization")
		}
		if got := metricCounterValue(t, c.NavigationsTotal.WithLabelValues("/blog/:id", "completed")); got != 1 {
			t.Fatalf("navigations_total(completed)=%v, want 1", got)
		}
		if got := metricHistogramCount(t, c.NavigationDuration.WithLabelValues("/blog/:id")); got == 0 {
			t.Fatal("expected navigation_duration_seconds histogram to have sample count > 0")
		}
		if got := metricGaugeValue(t, c.ActiveRoutes); got != 1 {
			t.Fatalf("active_routes=%v, want 1", got)
		}
	})

	t.Run("nested routes set active route count", func(t *testing.T) {
		r := newMetricsRouter(t)
		if _, err := r.Navigate(context.Background(), "/shop/cart"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := metricGaugeValue(t, GetMetrics().ActiveRoutes); got != 2 {
			t.Fatalf("active_routes=%v, want 2", got)
		}
	})

	t.Run("unmatched and aborted navigations", func(t *testing.T) {
		r := newMetricsRouter(t)
		ctx := context.Background()
		if _, err := r.Navigate(ctx, "/nope"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := r.Navigate(ctx, "/locked"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		c := GetMetrics()
		if got := metricCounterValue(t, c.NavigationsTotal.WithLabelValues(unmatchedRoute, "not_found")); got != 1 {
			t.Fatalf("navigations_total(not_found)=%v, want 1", got)
		}
		if got := metricCounterValue(t, c.NavigationsTotal.WithLabelValues("/locked", "aborted")); got != 1 {
			t.Fatalf("navigations_total(aborted)=%v, want 1", got)
		}
	})

	t.Run("hook failure increments error counter", func(t *testing.T) {
		r := newMetricsRouter(t)
		if _, err := r.Navigate(context.Background(), "/fail"); err == nil {
			t.Fatal("expected error to propagate")
		}

		c := GetMetrics()
		if got := metricCounterValue(t, c.NavigationsTotal.WithLabelValues("/fail", "failed")); got != 1 {
			t.Fatalf("navigations_total(failed)=%v, want 1", got)
		}
		if got := metricCounterValue(t, c.NavigationErrors.WithLabelValues("/fail", "hook_error")); got != 1 {
			t.Fatalf("navigation_errors_total(hook_error)=%v, want 1", got)
		}
	})
}

func TestPrometheusReusesMetrics(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	_ = Prometheus(WithRegistry(reg))
	first := GetMetrics()
	_ = Prometheus(WithRegistry(reg))
	second := GetMetrics()

	if first.NavigationsTotal != second.NavigationsTotal {
		t.Fatal("expected Prometheus to reuse the registered metrics")
	}
}

func TestMetricsRecordFunctions_WithInitializedMetrics(t *testing.T) {
	resetGlobalMetricsForTest()
	reg := prometheus.NewRegistry()

	_ = Prometheus(WithRegistry(reg))
	c := GetMetrics()
	if c == nil {
		t.Fatal("expected GetMetrics to return collector after initialization")
	}

	RecordWebSocketConnect()
	RecordWebSocketConnect()
	RecordWebSocketDisconnect()
	RecordWebSocketError("read")

	if got := metricGaugeValue(t, c.WebSocketClients); got != 1 {
		t.Fatalf("websocket_clients=%v, want 1", got)
	}
	if got := metricCounterValue(t, c.WebSocketErrors.WithLabelValues("read")); got != 1 {
		t.Fatalf("websocket_errors_total(read)=%v, want 1", got)
	}
}

func TestMetricsRecordFunctions_Uninitialized(t *testing.T) {
	resetGlobalMetricsForTest()

	// Must not panic without metrics.
	RecordWebSocketConnect()
	RecordWebSocketDisconnect()
	RecordWebSocketError("write")

	if GetMetrics() != nil {
		t.Fatal("expected nil collector before initialization")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{rkerrors.New("E040"), "hook_error"},
		{rkerrors.New("E041"), "hook_panic"},
		{rkerrors.New("E042"), "invalid_target"},
		{rkerrors.New("E043").Wrap(context.Canceled), "cancelled"},
		{rkerrors.New("E060"), "transition"},
		{errors.New("something else"), "internal"},
	}

	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMetricsConfig(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "routekit" {
		t.Errorf("Namespace = %q, want routekit", config.Namespace)
	}

	reg := prometheus.NewRegistry()
	for _, opt := range []MetricsOption{
		WithNamespace("shop"),
		WithSubsystem("client"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
		WithRegistry(reg),
	} {
		opt(&config)
	}

	if config.Namespace != "shop" || config.Subsystem != "client" {
		t.Errorf("config = %+v", config)
	}
	if config.ConstLabels["env"] != "test" || len(config.Buckets) != 2 || config.Registry != reg {
		t.Errorf("config = %+v", config)
	}
}
