package router

import (
	"context"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
)

// Link builds the URL of the route selected by path or name. params fill
// the pattern captures and query is appended in key order.
//
//	href, err := r.Link("doc", router.Params{"page": "intro"}, nil)
//	// "/docs/intro"
func (r *Router) Link(selector string, params Params, query map[string]any) (string, error) {
	rec := r.Route(selector)
	if rec == nil {
		return "", rkerrors.New("E042").
			WithRoute(selector).
			WithDetail("no route with this path or name")
	}
	path, err := rec.pattern.Build(params)
	if err != nil {
		return "", rkerrors.New("E042").WithRoute(selector).Wrap(err)
	}
	req := NavigationRequest{Path: path, Options: NavigateOptions{Query: query}}
	return req.BuildURL()
}

// NavigateTo navigates to the route selected by path or name.
func (r *Router) NavigateTo(ctx context.Context, selector string, params Params, opts ...NavigateOption) (Result, error) {
	target, err := r.Link(selector, params, nil)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}
	return r.Navigate(ctx, target, opts...)
}

// IsActive reports whether the selected route is part of the current
// route. With exact set it must be the most specific match.
func (r *Router) IsActive(selector string, exact bool) bool {
	rec := r.Route(selector)
	current := r.CurrentRoute()
	if rec == nil || current == nil || len(current.Matches) == 0 {
		return false
	}
	if exact {
		return current.Matches[0] == rec
	}
	if current.Matched(rec) {
		return true
	}
	// Ancestors of the active route count as active.
	for p := current.Matches[0].parent; p != nil; p = p.parent {
		if p == rec {
			return true
		}
	}
	return false
}
