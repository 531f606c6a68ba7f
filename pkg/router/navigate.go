package router

import (
	"context"
	"fmt"
	"net/url"
)

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Pop marks the navigation as coming from history traversal. History
	// is left untouched and Pop hooks run.
	Pop bool

	// Query holds query parameters to add to the target.
	Query map[string]any

	// Meta overrides keys of the matched route's metadata.
	Meta Meta
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithPop marks the navigation as a history traversal.
func WithPop() NavigateOption {
	return func(o *NavigateOptions) {
		o.Pop = true
	}
}

// WithQuery adds query parameters to the navigation target.
func WithQuery(query map[string]any) NavigateOption {
	return func(o *NavigateOptions) {
		o.Query = query
	}
}

// WithMeta overrides metadata of the resulting current route.
func WithMeta(meta Meta) NavigateOption {
	return func(o *NavigateOptions) {
		o.Meta = meta
	}
}

// NavigationRequest represents a requested navigation.
type NavigationRequest struct {
	Path    string
	Options NavigateOptions
}

// BuildURL constructs the full target for a navigation request.
func (nr *NavigationRequest) BuildURL() (string, error) {
	u, err := url.Parse(nr.Path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %s", nr.Path)
	}

	if nr.Options.Query != nil {
		q := u.Query()
		for k, v := range nr.Options.Query {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Navigation is the in-flight state handed to middleware.
type Navigation struct {
	ctx context.Context

	// Request is the navigation as requested.
	Request NavigationRequest

	// Target is the canonical target location.
	Target string

	// From is the route that was current when the navigation started.
	From *Route

	// Result is filled in once the lifecycle finished.
	Result Result

	committed bool
}

// Context returns the navigation context.
func (n *Navigation) Context() context.Context {
	if n.ctx == nil {
		return context.Background()
	}
	return n.ctx
}

// SetContext replaces the navigation context. Middleware uses this to
// carry values such as trace spans into the lifecycle.
func (n *Navigation) SetContext(ctx context.Context) {
	n.ctx = ctx
}
