package manifest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/router"
)

// Registry maps the names used in a manifest to Go hooks.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]router.Handler
	before   map[string]router.BeforeFunc
	hooks    map[string]router.HookFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]router.Handler),
		before:   make(map[string]router.BeforeFunc),
		hooks:    make(map[string]router.HookFunc),
	}
}

// Handler registers a handler value for the "handler" field.
func (r *Registry) Handler(name string, h router.Handler) *Registry {
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return r
}

// Before registers a gating hook for before, beforeInit and beforeUpdate.
func (r *Registry) Before(name string, fn router.BeforeFunc) *Registry {
	r.mu.Lock()
	r.before[name] = fn
	r.mu.Unlock()
	return r
}

// Hook registers a hook for init, update, after, pop and unload.
func (r *Registry) Hook(name string, fn router.HookFunc) *Registry {
	r.mu.Lock()
	r.hooks[name] = fn
	r.mu.Unlock()
	return r
}

// Names lists every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for n := range r.handlers {
		seen[n] = struct{}{}
	}
	for n := range r.before {
		seen[n] = struct{}{}
	}
	for n := range r.hooks {
		seen[n] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build turns the manifest into router definitions. A nil registry is
// only valid for manifests that name no hooks.
func (m *Manifest) Build(reg *Registry) ([]router.Definition, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return reg.build(m.Routes, "")
}

func (r *Registry) build(specs []RouteSpec, prefix string) ([]router.Definition, error) {
	defs := make([]router.Definition, 0, len(specs))
	for _, spec := range specs {
		def, err := r.definition(spec, prefix)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (r *Registry) definition(spec RouteSpec, prefix string) (router.Definition, error) {
	where := joinPath(prefix, spec.Path)
	def := router.Definition{
		Path: spec.Path,
		Name: spec.Name,
	}
	if len(spec.Meta) > 0 {
		def.Meta = router.Meta(spec.Meta)
	}
	if len(spec.Filters) > 0 {
		def.Filter = router.FilterName(spec.Filters...)
	}

	var err error
	if def.Handler, err = r.handler(spec.Handler, where); err != nil {
		return def, err
	}
	if def.Before, err = r.gate(spec.Before, "before", where); err != nil {
		return def, err
	}
	if def.BeforeInit, err = r.gate(spec.BeforeInit, "beforeInit", where); err != nil {
		return def, err
	}
	if def.BeforeUpdate, err = r.gate(spec.BeforeUpdate, "beforeUpdate", where); err != nil {
		return def, err
	}
	if def.Init, err = r.hook(spec.Init, "init", where); err != nil {
		return def, err
	}
	if def.Update, err = r.hook(spec.Update, "update", where); err != nil {
		return def, err
	}
	if def.After, err = r.hook(spec.After, "after", where); err != nil {
		return def, err
	}
	if def.Pop, err = r.hook(spec.Pop, "pop", where); err != nil {
		return def, err
	}

	unload, err := r.hook(spec.Unload, "unload", where)
	if err != nil {
		return def, err
	}
	if unload != nil || len(spec.Resources) > 0 {
		def.Unload = &router.Unload{
			Resources: append([]string(nil), spec.Resources...),
			Handler:   unload,
		}
	}

	if len(spec.Children) > 0 {
		if def.Children, err = r.build(spec.Children, where); err != nil {
			return def, err
		}
	}
	return def, nil
}

func (r *Registry) handler(name, where string) (router.Handler, error) {
	if name == "" {
		return nil, nil
	}
	if h, ok := r.handlers[name]; ok {
		return h, nil
	}
	// Plain hooks double as init/update handlers.
	if fn, ok := r.hooks[name]; ok {
		return router.HandlerFunc(fn), nil
	}
	return nil, unknown("handler", name, where)
}

func (r *Registry) gate(name, field, where string) (router.BeforeFunc, error) {
	if name == "" {
		return nil, nil
	}
	if fn, ok := r.before[name]; ok {
		return fn, nil
	}
	return nil, unknown(field, name, where)
}

func (r *Registry) hook(name, field, where string) (router.HookFunc, error) {
	if name == "" {
		return nil, nil
	}
	if fn, ok := r.hooks[name]; ok {
		return fn, nil
	}
	return nil, unknown(field, name, where)
}

func unknown(field, name, where string) error {
	return rkerrors.New("E021").
		WithRoute(where).
		WithDetail(fmt.Sprintf("%s %q is not registered", field, name)).
		WithSuggestion("Register it with manifest.Registry before building")
}

// joinPath mirrors how the router resolves child paths, for error messages.
func joinPath(prefix, path string) string {
	if prefix == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return strings.TrimSuffix(prefix, "/") + "/" + path
}

// Stub returns a registry with a no-op for every name m references. Gates
// always proceed. It lets tools inspect and navigate a manifest without
// the program that defines its hooks.
func Stub(m *Manifest) *Registry {
	reg := NewRegistry()
	noop := func(to, from *router.Route) error { return nil }
	pass := func(to, from *router.Route, next router.Next) error {
		next(true)
		return nil
	}

	var walk func(specs []RouteSpec)
	walk = func(specs []RouteSpec) {
		for _, s := range specs {
			for _, name := range []string{s.Handler, s.Init, s.Update, s.After, s.Pop, s.Unload} {
				if name != "" {
					reg.Hook(name, noop)
				}
			}
			for _, name := range []string{s.Before, s.BeforeInit, s.BeforeUpdate} {
				if name != "" {
					reg.Before(name, pass)
				}
			}
			walk(s.Children)
		}
	}
	walk(m.Routes)
	return reg
}
