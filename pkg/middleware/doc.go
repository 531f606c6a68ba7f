// Package middleware provides navigation middleware for the router.
//
// This package includes:
//   - OpenTelemetry tracing of navigations
//   - Prometheus navigation metrics
//   - Structured logging through log/slog
//
// # OpenTelemetry Middleware
//
// Every navigation gets a span named after the target path. The span
// context becomes the navigation context, so leave transitions run inside
// it.
//
//	r := router.New(router.WithMiddleware(
//	    middleware.OpenTelemetry(
//	        middleware.WithTracerName("shop"),
//	        middleware.WithNavigationFilter(func(nav *router.Navigation) bool {
//	            return nav.Target != "/healthz"
//	        }),
//	    ),
//	))
//
// # Prometheus Metrics
//
// Navigations are counted per matched route pattern and status:
//   - routekit_navigations_total
//   - routekit_navigation_duration_seconds
//   - routekit_navigation_errors_total
//   - routekit_active_routes
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware
