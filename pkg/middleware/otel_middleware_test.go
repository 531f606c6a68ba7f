package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routekit/pkg/router"
)

type ctxTransition struct {
	leaveCtx context.Context
}

func (c *ctxTransition) Leave(ctx context.Context, to, from *router.Route) error {
	c.leaveCtx = ctx
	return nil
}

func (c *ctxTransition) Enter(to, from *router.Route) {}

func TestOpenTelemetryMiddleware_StoresTraceContext(t *testing.T) {
	tr := &ctxTransition{}
	r := router.New(router.WithTransition(tr))
	r.MustMap(router.Definition{Path: "/a"}, router.Definition{Path: "/projects/:id"})

	var during trace.Span
	r.Use(
		OpenTelemetry(
			WithIncludeQuery(true),
			WithAttributeExtractor(func(*router.Navigation) []attribute.KeyValue {
				return []attribute.KeyValue{attribute.String("test.attr", "ok")}
			}),
		),
		router.MiddlewareFunc(func(nav *router.Navigation, next func() error) error {
			during = SpanFromNavigation(nav)
			_ = trace.SpanContextFromContext(TraceContext(nav)) // Should not panic
			return next()
		}),
	)

	ctx := context.Background()
	if _, err := r.Navigate(ctx, "/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if during == nil {
		t.Fatal("expected SpanFromNavigation to return a span during execution")
	}

	if _, err := r.Navigate(ctx, "/projects/7?tab=files"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.leaveCtx == nil {
		t.Fatal("expected leave transition to run")
	}
	if tr.leaveCtx.Value(spanContextKey{}) == nil {
		t.Fatal("expected leave transition to receive the span context")
	}
}

func TestOpenTelemetryMiddleware_ErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	r := router.New(router.WithMiddleware(OpenTelemetry()))
	r.MustMap(router.Definition{Path: "/", Init: func(to, from *router.Route) error {
		return wantErr
	}})

	_, err := r.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error %v, got %v", wantErr, err)
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	r := router.New()
	r.MustMap(router.Definition{Path: "/healthz"})

	nextCalled := false
	r.Use(
		OpenTelemetry(
			WithNavigationFilter(func(nav *router.Navigation) bool { return nav.Target != "/healthz" }),
		),
		router.MiddlewareFunc(func(nav *router.Navigation, next func() error) error {
			nextCalled = true
			if SpanFromNavigation(nav) != nil {
				t.Fatal("expected no span when filter skips tracing")
			}
			return next()
		}),
	)

	if _, err := r.Navigate(context.Background(), "/healthz"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to be called")
	}
}

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	if config.TracerName != "routekit" {
		t.Errorf("TracerName = %q, want routekit", config.TracerName)
	}
	if config.IncludeQuery {
		t.Error("IncludeQuery should default to false")
	}

	WithTracerName("shop")(&config)
	WithIncludeQuery(true)(&config)
	if config.TracerName != "shop" || !config.IncludeQuery {
		t.Errorf("config = %+v", config)
	}
}

func TestFormatSpanName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/projects/7", "navigate /projects/7"},
		{"", "navigate /"},
	}
	for _, tt := range tests {
		if got := formatSpanName(tt.path); got != tt.want {
			t.Errorf("formatSpanName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target, path, query string
	}{
		{"/a", "/a", ""},
		{"/a?x=1", "/a", "x=1"},
		{"/a?x=1#top", "/a", "x=1"},
		{"/a#top?x", "/a", ""},
	}
	for _, tt := range tests {
		path, query := splitTarget(tt.target)
		if path != tt.path || query != tt.query {
			t.Errorf("splitTarget(%q) = %q, %q; want %q, %q", tt.target, path, query, tt.path, tt.query)
		}
	}
}
