package middleware

import (
	"log/slog"
	"time"

	"github.com/vango-dev/routekit/pkg/router"
)

// Logging creates middleware that logs every navigation at debug level and
// failed ones at error level. A nil logger uses slog.Default().
func Logging(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "navigation")

	return router.MiddlewareFunc(func(nav *router.Navigation, next func() error) error {
		start := time.Now()
		err := next()

		attrs := []any{
			"target", nav.Target,
			"route", routeLabel(nav.Result),
			"status", nav.Result.Status.String(),
			"duration", time.Since(start),
		}
		if err != nil {
			logger.Error("navigation failed", append(attrs, "error", err)...)
			return err
		}
		logger.Debug("navigation", attrs...)
		return err
	})
}
