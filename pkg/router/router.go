package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/routekit/pkg/uri"
)

// Router owns a route table and drives navigations through the route
// lifecycle. Navigations are served one at a time in arrival order.
type Router struct {
	mu         sync.RWMutex
	table      *Table
	filters    filterSet
	current    *Route
	middleware []Middleware
	observers  []func(Result)

	history    History
	transition Transitioner
	releaser   Releaser
	logger     *slog.Logger

	// sem serializes navigations.
	sem chan struct{}
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHistory sets the history the router reads and writes locations from.
func WithHistory(h History) Option {
	return func(r *Router) {
		if h != nil {
			r.history = h
		}
	}
}

// WithTransition sets the transition coordinator used around route changes.
func WithTransition(t Transitioner) Option {
	return func(r *Router) {
		r.transition = t
	}
}

// WithReleaser sets how unload resources are released.
func WithReleaser(rel Releaser) Option {
	return func(r *Router) {
		if rel != nil {
			r.releaser = rel
		}
	}
}

// WithStrict reports duplicate paths and names as registration errors.
func WithStrict(strict bool) Option {
	return func(r *Router) {
		r.table.strict = strict
	}
}

// WithMiddleware adds navigation middleware.
func WithMiddleware(mw ...Middleware) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// New creates a router with an empty route table and an in-memory history
// positioned at "/".
func New(opts ...Option) *Router {
	r := &Router{
		table:   NewTable(false),
		filters: make(filterSet),
		history: NewMemoryHistory("/"),
		logger:  slog.Default().With("component", "router"),
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.releaser == nil {
		logger := r.logger
		r.releaser = ReleaserFunc(func(resources ...string) {
			logger.Debug("releasing route resources", "resources", resources)
		})
	}
	return r
}

// Map registers route definitions. Registration does not navigate; call
// Run or Navigate afterwards.
func (r *Router) Map(defs ...Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.Register(defs...)
}

// MustMap is like Map but panics on error.
func (r *Router) MustMap(defs ...Definition) *Router {
	if err := r.Map(defs...); err != nil {
		panic(err)
	}
	return r
}

// Reset clears the route table and the current route. Registered filters
// are kept.
func (r *Router) Reset() *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table.Reset()
	r.current = nil
	return r
}

// Routes returns a copy of the path to record map.
func (r *Router) Routes() map[string]*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.All()
}

// RouteList returns the registered paths in registration order.
func (r *Router) RouteList() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.List()
}

// RouteNames returns a copy of the name to record map.
func (r *Router) RouteNames() map[string]*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Names()
}

// Route looks a record up by path, then by name.
func (r *Router) Route(selector string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Lookup(selector)
}

// CurrentRoute returns the route of the last completed navigation, or nil.
func (r *Router) CurrentRoute() *Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Location returns the active history location.
func (r *Router) Location() string {
	return r.history.Location()
}

// History returns the router history.
func (r *Router) History() History {
	return r.history
}

// URI parses raw, or the active location when raw is omitted.
func (r *Router) URI(raw ...string) (*uri.URI, error) {
	if len(raw) > 0 {
		return uri.Parse(raw[0])
	}
	return uri.Parse(r.history.Location())
}

// Segments returns the decoded path segments of the active location.
func (r *Router) Segments() []string {
	u, err := r.URI()
	if err != nil {
		r.logger.Warn("active location is not a valid URI",
			"location", r.history.Location(),
			"error", err)
		return []string{}
	}
	return u.Segments
}

// Segment returns the i-th segment of the active location, or "" when out
// of range.
func (r *Router) Segment(i int) string {
	segments := r.Segments()
	if i < 0 || i >= len(segments) {
		return ""
	}
	return segments[i]
}

// Match matches raw against the route table without navigating.
func (r *Router) Match(raw string) (*Route, error) {
	u, err := uri.Parse(raw)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.match(u, r.filters, r.logger), nil
}

// AddFilter registers a named filter.
func (r *Router) AddFilter(name string, fn FilterFunc) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = fn
	return r
}

// AddFilters registers several named filters.
func (r *Router) AddFilters(filters map[string]FilterFunc) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, fn := range filters {
		r.filters[name] = fn
	}
	return r
}

// Use appends navigation middleware.
func (r *Router) Use(mw ...Middleware) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
	return r
}

// Observe registers fn to be called after every navigation that did not
// fail. Observers run on the navigating goroutine.
func (r *Router) Observe(fn func(Result)) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
	return r
}

// acquire waits for the navigation slot.
func (r *Router) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) release() {
	<-r.sem
}
