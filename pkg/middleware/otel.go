package middleware

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routekit/pkg/router"
)

const defaultTracerName = "routekit"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "routekit").
	TracerName string

	// IncludeQuery records the raw query string of the target.
	// Disabled by default since queries may carry sensitive values.
	IncludeQuery bool

	// Filter determines which navigations to trace. If nil, all are traced.
	Filter func(nav *router.Navigation) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(nav *router.Navigation) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeQuery enables recording the target query string.
func WithIncludeQuery(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeQuery = include
	}
}

// WithNavigationFilter sets a filter function for navigations.
func WithNavigationFilter(filter func(nav *router.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav *router.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every navigation.
//
// The span carries the target, the matched route pattern and the result
// status. The span context replaces the navigation context, so leave
// transitions and hooks reading nav.Context() see it.
//
// The tracer comes from the global provider; configure it with
// otel.SetTracerProvider before navigating.
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return router.MiddlewareFunc(func(nav *router.Navigation, next func() error) error {
		if config.Filter != nil && !config.Filter(nav) {
			return next()
		}

		path, query := splitTarget(nav.Target)
		attrs := []attribute.KeyValue{
			attribute.String("routekit.path", path),
			attribute.Bool("routekit.replace", nav.Request.Options.Replace),
			attribute.Bool("routekit.pop", nav.Request.Options.Pop),
		}
		if config.IncludeQuery && query != "" {
			attrs = append(attrs, attribute.String("routekit.query", query))
		}
		if nav.From != nil {
			attrs = append(attrs, attribute.String("routekit.from", nav.From.Path))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(nav)...)
		}

		spanCtx, span := config.tracer.Start(
			nav.Context(),
			formatSpanName(path),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		nav.SetContext(context.WithValue(spanCtx, spanContextKey{}, spanCtx))

		err := next()

		span.SetAttributes(
			attribute.String("routekit.route", routeLabel(nav.Result)),
			attribute.String("routekit.status", nav.Result.Status.String()),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

// spanContextKey marks contexts created by the tracing middleware.
type spanContextKey struct{}

// SpanFromNavigation returns the navigation span, or nil when the
// navigation is not traced.
func SpanFromNavigation(nav *router.Navigation) trace.Span {
	if spanCtx, ok := nav.Context().Value(spanContextKey{}).(context.Context); ok {
		return trace.SpanFromContext(spanCtx)
	}
	return nil
}

// TraceContext returns the context to propagate to downstream calls.
func TraceContext(nav *router.Navigation) context.Context {
	return nav.Context()
}

func formatSpanName(path string) string {
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("navigate %s", path)
}

// splitTarget drops the fragment and splits off the query.
func splitTarget(target string) (path, query string) {
	target, _, _ = strings.Cut(target, "#")
	path, query, _ = strings.Cut(target, "?")
	return path, query
}
