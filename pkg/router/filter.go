package router

import (
	"log/slog"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/uri"
)

// FilterFunc decides whether a matched route takes part in the navigation.
// It is also usable inline as a FilterRef.
type FilterFunc func(params Params, u *uri.URI) bool

// FilterRef references one or more filters on a Definition. The
// implementations are FilterFunc and the value returned by FilterName.
type FilterRef interface {
	evaluate(fs filterSet, params Params, u *uri.URI, logger *slog.Logger) bool
}

func (f FilterFunc) evaluate(_ filterSet, params Params, u *uri.URI, _ *slog.Logger) bool {
	return f == nil || f(params, u)
}

// filterNames refers to filters registered with Router.AddFilter.
type filterNames []string

// FilterName references registered filters by name. All must pass; they
// are evaluated in order and stop at the first rejection.
func FilterName(names ...string) FilterRef {
	return filterNames(names)
}

func (n filterNames) evaluate(fs filterSet, params Params, u *uri.URI, logger *slog.Logger) bool {
	for _, name := range n {
		fn, ok := fs[name]
		if !ok {
			logger.Warn("route filter not registered",
				"filter", name,
				"error", rkerrors.New("E004").WithDetail(name))
			return false
		}
		if !fn(params, u) {
			return false
		}
	}
	return true
}

// filterSet is the named filter registry of a router.
type filterSet map[string]FilterFunc

func (fs filterSet) clone() filterSet {
	out := make(filterSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}
