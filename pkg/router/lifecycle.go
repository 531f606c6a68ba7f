package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/uri"
)

// ErrHookFailure is matched by errors.Is for every error raised or panic
// recovered inside a route hook.
var ErrHookFailure = errors.New("route hook failed")

// HookError describes a failed route hook.
type HookError struct {
	Route string
	Phase Phase
	Err   error
}

// Error implements error.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook of %s: %v", e.Phase, e.Route, e.Err)
}

// Unwrap exposes both ErrHookFailure and the hook's own error.
func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailure, e.Err}
}

type navKind int

const (
	navPush navKind = iota
	navRun
	navBack
	navForward
)

// Navigate runs the route lifecycle for target. The returned error is set
// for invalid targets, hook failures, failed leave transitions and
// cancelled contexts, in which case the Result status is StatusFailed.
// Aborted and unmatched navigations are reported through the status only.
func (r *Router) Navigate(ctx context.Context, target string, opts ...NavigateOption) (Result, error) {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}
	return r.navigate(ctx, navPush, NavigationRequest{Path: target, Options: options})
}

// Run runs the route lifecycle against the active history location.
func (r *Router) Run(ctx context.Context) (Result, error) {
	return r.navigate(ctx, navRun, NavigationRequest{})
}

// Back moves the history back one entry and navigates there as a pop.
// When already at the first entry the current route is returned unchanged.
func (r *Router) Back(ctx context.Context) (Result, error) {
	return r.navigate(ctx, navBack, NavigationRequest{Options: NavigateOptions{Pop: true}})
}

// Forward moves the history forward one entry and navigates there as a pop.
func (r *Router) Forward(ctx context.Context) (Result, error) {
	return r.navigate(ctx, navForward, NavigationRequest{Options: NavigateOptions{Pop: true}})
}

func (r *Router) navigate(ctx context.Context, kind navKind, req NavigationRequest) (Result, error) {
	if err := r.acquire(ctx); err != nil {
		return Result{Status: StatusFailed}, rkerrors.New("E043").Wrap(err)
	}
	defer r.release()

	var nav *Navigation
	switch kind {
	case navRun:
		req.Path = r.history.Location()
	case navBack, navForward:
		step, rewind := r.history.Back, r.history.Forward
		if kind == navForward {
			step, rewind = r.history.Forward, r.history.Back
		}
		loc, moved := step()
		if !moved {
			current := r.CurrentRoute()
			return Result{Status: StatusCompleted, Route: current, From: current}, nil
		}
		req.Path = loc
		// History must keep pointing at the current route when the
		// popped location is never committed.
		defer func() {
			if nav == nil || !nav.committed {
				rewind()
			}
		}()
	}

	full, err := req.BuildURL()
	if err != nil {
		return Result{Status: StatusFailed}, rkerrors.New("E042").WithDetail(req.Path).Wrap(err)
	}
	u, err := uri.Parse(full)
	if err != nil {
		return Result{Status: StatusFailed}, rkerrors.New("E042").WithDetail(req.Path).Wrap(err)
	}

	r.mu.RLock()
	middleware := append([]Middleware(nil), r.middleware...)
	nav = &Navigation{
		ctx:     ctx,
		Request: req,
		Target:  u.Full,
		From:    r.current,
	}
	r.mu.RUnlock()

	record := kind == navPush && !req.Options.Pop
	start := time.Now()
	err = ComposeMiddleware(nav, middleware, func() error {
		return r.sequence(nav, u, record)
	})
	if err != nil {
		r.logger.Error("navigation failed",
			"target", nav.Target,
			"error", err)
		return nav.Result, err
	}
	if nav.Result.Route == nil {
		// Middleware did not call next.
		return nav.Result, nil
	}

	r.logger.Debug("navigation finished",
		"target", nav.Target,
		"status", nav.Result.Status.String(),
		"duration", time.Since(start))

	r.mu.RLock()
	observers := append([]func(Result){}, r.observers...)
	r.mu.RUnlock()
	for _, fn := range observers {
		fn(nav.Result)
	}
	return nav.Result, nil
}

// sequence runs the lifecycle phases for a single navigation.
func (r *Router) sequence(nav *Navigation, u *uri.URI, record bool) error {
	ctx := nav.Context()
	from := nav.From

	r.mu.RLock()
	to := r.table.match(u, r.filters, r.logger)
	r.mu.RUnlock()

	if to == nil {
		to = newRoute(u, nil, nil)
		nav.Result = Result{Status: StatusFailed, Route: to, From: from}
		if err := r.unload(to, from); err != nil {
			return err
		}
		r.commit(nav, to, record)
		nav.Result = Result{Status: StatusNotFound, Route: to, From: from}
		return nil
	}
	for k, v := range nav.Request.Options.Meta {
		to.Meta[k] = v
	}
	nav.Result = Result{Status: StatusFailed, Route: to, From: from}

	// Before hooks, most specific route first. No state changes until
	// every gate passed.
	for _, rec := range to.Matches {
		for _, g := range rec.hooks.gates(rec.Processed()) {
			proceed, err := r.await(ctx, rec, g, to, from)
			if err != nil {
				return err
			}
			if !proceed {
				r.logger.Debug("navigation aborted",
					"target", to.Full,
					"route", rec.path,
					"hook", g.phase.String())
				nav.Result = Result{Status: StatusAborted, Route: to, From: from}
				return nil
			}
		}
	}

	if r.transition != nil {
		if from != nil && len(from.Matches) > 0 {
			if err := r.transition.Leave(ctx, to, from); err != nil {
				return rkerrors.New("E060").WithRoute(from.Path).Wrap(err)
			}
		}
		// Enter also follows a failed phase so the outgoing view never
		// stays in its leave state.
		defer r.transition.Enter(to, from)
	}

	if err := r.unload(to, from); err != nil {
		return err
	}
	r.commit(nav, to, record)

	// Init and update run ancestor first so the most specific route has
	// the final effect.
	for i := len(to.Matches) - 1; i >= 0; i-- {
		rec := to.Matches[i]
		phase, hooks := PhaseInit, rec.hooks.init
		if rec.Processed() {
			phase, hooks = PhaseUpdate, rec.hooks.update
		}
		for _, fn := range hooks {
			if err := r.invoke(rec, phase, to, from, fn); err != nil {
				return err
			}
		}
		rec.processed.Store(true)
	}

	for _, rec := range to.Matches {
		for _, fn := range rec.hooks.after {
			if err := r.invoke(rec, PhaseAfter, to, from, fn); err != nil {
				return err
			}
		}
	}

	if nav.Request.Options.Pop {
		for _, rec := range to.Matches {
			for _, fn := range rec.hooks.pop {
				if err := r.invoke(rec, PhasePop, to, from, fn); err != nil {
					return err
				}
			}
		}
	}

	nav.Result = Result{Status: StatusCompleted, Route: to, From: from}
	return nil
}

// unload runs the unload hooks of records active in from but not in to,
// most specific first, and clears their processed flag.
func (r *Router) unload(to, from *Route) error {
	if from == nil {
		return nil
	}
	for _, rec := range from.Matches {
		if to.Matched(rec) {
			continue
		}
		rec.processed.Store(false)
		for _, un := range rec.hooks.unload {
			if len(un.Resources) > 0 {
				r.releaser.Release(un.Resources...)
			}
			if un.Handler == nil {
				continue
			}
			if err := r.invoke(rec, PhaseUnload, to, from, un.Handler); err != nil {
				return err
			}
		}
	}
	return nil
}

// commit makes to the current route and records it in history.
func (r *Router) commit(nav *Navigation, to *Route, record bool) {
	r.mu.Lock()
	r.current = to
	r.mu.Unlock()
	nav.committed = true

	if !record {
		return
	}
	switch {
	case nav.Request.Options.Replace:
		r.history.Replace(to.Full)
	case r.history.Location() != to.Full:
		r.history.Push(to.Full)
	}
}

// await runs a before-hook and waits for its decision.
func (r *Router) await(ctx context.Context, rec *Record, g gate, to, from *Route) (bool, error) {
	decided := make(chan bool, 1)
	var once sync.Once
	next := Next(func(proceed bool) {
		once.Do(func() { decided <- proceed })
	})

	if err := r.guard(rec, g.phase, func() error { return g.fn(to, from, next) }); err != nil {
		return false, err
	}

	select {
	case proceed := <-decided:
		return proceed, nil
	case <-ctx.Done():
		return false, rkerrors.New("E043").
			WithRoute(rec.path).
			WithDetail(g.phase.String()).
			Wrap(ctx.Err())
	}
}

func (r *Router) invoke(rec *Record, phase Phase, to, from *Route, fn HookFunc) error {
	return r.guard(rec, phase, func() error { return fn(to, from) })
}

// guard calls fn, converting returned errors and panics into hook failures.
func (r *Router) guard(rec *Record, phase Phase, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = rkerrors.New("E041").
				WithRoute(rec.path).
				WithDetail(phase.String()).
				Wrap(&HookError{Route: rec.path, Phase: phase, Err: fmt.Errorf("panic: %v", p)})
		}
	}()
	if hookErr := fn(); hookErr != nil {
		return rkerrors.New("E040").
			WithRoute(rec.path).
			WithDetail(phase.String()).
			Wrap(&HookError{Route: rec.path, Phase: phase, Err: hookErr})
	}
	return nil
}
