package router

import (
	"context"
	"encoding/json"

	"go.uber.org/atomic"

	"github.com/vango-dev/routekit/pkg/routepath"
	"github.com/vango-dev/routekit/pkg/uri"
)

// Params are the values captured from the matched path.
type Params = routepath.Params

// Meta is opaque route metadata.
type Meta map[string]any

// Next continues (true) or aborts (false) a navigation from a before-hook.
// Only the first call has an effect.
type Next func(proceed bool)

// BeforeFunc gates a navigation. It must call next exactly once, either
// synchronously or later from any goroutine. from is nil on the first
// navigation.
type BeforeFunc func(to, from *Route, next Next) error

// HookFunc runs during the init, update, after, unload and pop phases.
type HookFunc func(to, from *Route) error

// Definition is a user-authored route, possibly with nested children.
// Child paths are relative to the parent unless they start with "/".
type Definition struct {
	// Path is the route pattern (e.g., "/blog/:id", "/files/*path").
	Path string

	// Name optionally identifies the route globally.
	Name string

	// Handler contributes hooks through one of the handler variants.
	Handler Handler

	// Before runs on every navigation to the route.
	Before BeforeFunc

	// BeforeInit runs before the route is first processed.
	BeforeInit BeforeFunc

	// BeforeUpdate runs before an already processed route is processed again.
	BeforeUpdate BeforeFunc

	// Init runs the first time the route matches.
	Init HookFunc

	// Update runs when an already processed route matches again.
	Update HookFunc

	// After runs once init/update completed for every matched route.
	After HookFunc

	// Unload runs when navigating away from the route.
	Unload *Unload

	// Pop runs when the navigation came from history traversal.
	Pop HookFunc

	// Filter decides whether the route takes part in a match.
	Filter FilterRef

	// Meta is attached to the route and merged into the current route.
	Meta Meta

	// Children are nested definitions.
	Children []Definition
}

// Unload describes what to release when leaving a route.
type Unload struct {
	// Resources are released through the router's Releaser.
	Resources []string

	// Handler is an optional callback run after the resources are released.
	Handler HookFunc
}

// UnloadFunc wraps a plain callback as an Unload.
func UnloadFunc(fn HookFunc) *Unload {
	return &Unload{Handler: fn}
}

// Record is a registered route. Everything except the processed flag is
// immutable after registration.
type Record struct {
	path      string
	name      string
	parent    *Record
	pattern   *routepath.Pattern
	meta      Meta
	handler   Handler
	filter    FilterRef
	hooks     hookSet
	depth     int
	order     int
	processed atomic.Bool
}

// Path returns the absolute route path.
func (r *Record) Path() string { return r.path }

// Name returns the route name, if any.
func (r *Record) Name() string { return r.name }

// Parent returns the record this route was nested under, or nil.
func (r *Record) Parent() *Record { return r.parent }

// Pattern returns the compiled path pattern.
func (r *Record) Pattern() *routepath.Pattern { return r.pattern }

// Handler returns the handler the route was defined with.
func (r *Record) Handler() Handler { return r.handler }

// Depth returns the nesting depth; top-level routes have depth 0.
func (r *Record) Depth() int { return r.depth }

// Processed reports whether the route's init phase has run for the
// current activation.
func (r *Record) Processed() bool { return r.processed.Load() }

// Meta returns a copy of the route metadata.
func (r *Record) Meta() Meta {
	return r.meta.clone()
}

// HasHook reports whether the route has at least one hook for phase.
func (r *Record) HasHook(phase Phase) bool {
	return r.hooks.has(phase)
}

// MarshalJSON renders the record for inspection.
func (r *Record) MarshalJSON() ([]byte, error) {
	var parent string
	if r.parent != nil {
		parent = r.parent.path
	}
	hooks := make([]string, 0, len(allPhases))
	for _, phase := range allPhases {
		if r.hooks.has(phase) {
			hooks = append(hooks, phase.String())
		}
	}
	return json.Marshal(struct {
		Path      string   `json:"path"`
		Name      string   `json:"name,omitempty"`
		Parent    string   `json:"parent,omitempty"`
		Regex     string   `json:"regex"`
		Meta      Meta     `json:"meta"`
		Hooks     []string `json:"hooks"`
		Processed bool     `json:"processed"`
	}{
		Path:      r.path,
		Name:      r.name,
		Parent:    parent,
		Regex:     r.pattern.String(),
		Meta:      r.meta,
		Hooks:     hooks,
		Processed: r.Processed(),
	})
}

// Route is the result of matching a location against the route table.
type Route struct {
	Name     string            `json:"name"`
	Meta     Meta              `json:"meta"`
	Path     string            `json:"path"`
	Hash     string            `json:"hash"`
	Query    map[string]string `json:"query"`
	Params   Params            `json:"params"`
	Segments []string          `json:"segments"`
	Full     string            `json:"full"`
	URL      string            `json:"url"`

	// Matches are the matched records, most specific first.
	Matches []*Record `json:"matches"`
}

// Bind populates a struct with the route params. See ParamParser.
func (r *Route) Bind(target any) error {
	return NewParamParser().Parse(r.Params, target)
}

// Matched reports whether rec is one of the route's matches.
func (r *Route) Matched(rec *Record) bool {
	if r == nil {
		return false
	}
	for _, m := range r.Matches {
		if m == rec {
			return true
		}
	}
	return false
}

// newRoute builds a route from a parsed location and ordered matches.
func newRoute(u *uri.URI, matches []*Record, params Params) *Route {
	route := &Route{
		Meta:     Meta{},
		Path:     u.Path,
		Hash:     u.Hash,
		Query:    u.Query,
		Params:   params.Clone(),
		Segments: u.Segments,
		Full:     u.Full,
		URL:      u.URL,
		Matches:  matches,
	}
	if len(matches) > 0 {
		route.Name = matches[0].name
		route.Meta = matches[0].meta.clone()
	}
	return route
}

func (m Meta) clone() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Status describes how a navigation ended.
type Status int

const (
	// StatusCompleted means every phase ran.
	StatusCompleted Status = iota

	// StatusAborted means a before-hook called next(false).
	StatusAborted

	// StatusNotFound means no route matched the location.
	StatusNotFound

	// StatusFailed means a hook, the leave transition or the context ended
	// the navigation with an error.
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is the outcome of a navigation.
type Result struct {
	Status Status `json:"status"`

	// Route is the route navigated to. For aborted navigations it is the
	// route that would have become current.
	Route *Route `json:"route"`

	// From is the route that was current when the navigation started.
	From *Route `json:"from,omitempty"`
}

// Transitioner coordinates visual transitions around the route change.
type Transitioner interface {
	// Leave blocks until the outgoing view finished transitioning.
	Leave(ctx context.Context, to, from *Route) error

	// Enter is called once the new route is active.
	Enter(to, from *Route)
}

// Releaser releases named resources when a route unloads.
type Releaser interface {
	Release(resources ...string)
}

// ReleaserFunc is a function adapter for Releaser.
type ReleaserFunc func(resources ...string)

// Release implements Releaser.
func (f ReleaserFunc) Release(resources ...string) {
	f(resources...)
}
