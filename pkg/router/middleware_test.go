package router

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// tracer records entry and exit of a named middleware.
func tracer(name string, log *[]string) Middleware {
	return MiddlewareFunc(func(nav *Navigation, next func() error) error {
		*log = append(*log, name+">")
		err := next()
		*log = append(*log, "<"+name)
		return err
	})
}

func lifecycleStub(log *[]string) func() error {
	return func() error {
		*log = append(*log, "lifecycle")
		return nil
	}
}

func TestComposeMiddleware(t *testing.T) {
	tests := []struct {
		name  string
		chain func(log *[]string) []Middleware
		want  []string
	}{
		{
			name:  "empty",
			chain: func(*[]string) []Middleware { return nil },
			want:  []string{"lifecycle"},
		},
		{
			name: "ordered",
			chain: func(log *[]string) []Middleware {
				return []Middleware{tracer("logging", log), tracer("metrics", log)}
			},
			want: []string{"logging>", "metrics>", "lifecycle", "<metrics", "<logging"},
		},
		{
			name: "nested chain",
			chain: func(log *[]string) []Middleware {
				return []Middleware{tracer("a", log), Chain(tracer("b", log), tracer("c", log))}
			},
			want: []string{"a>", "b>", "c>", "lifecycle", "<c", "<b", "<a"},
		},
		{
			name: "short circuit",
			chain: func(log *[]string) []Middleware {
				blocker := MiddlewareFunc(func(*Navigation, func() error) error {
					*log = append(*log, "blocked")
					return nil
				})
				return []Middleware{tracer("a", log), blocker, tracer("never", log)}
			},
			want: []string{"a>", "blocked", "<a"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var log []string
			if err := ComposeMiddleware(&Navigation{}, tc.chain(&log), lifecycleStub(&log)); err != nil {
				t.Fatalf("ComposeMiddleware() error = %v", err)
			}
			if !reflect.DeepEqual(log, tc.want) {
				t.Errorf("log = %v, want %v", log, tc.want)
			}
		})
	}
}

func TestComposeMiddlewarePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	var log []string
	err := ComposeMiddleware(&Navigation{}, []Middleware{tracer("a", &log)}, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if want := []string{"a>", "<a"}; !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
}

func TestSkipAndOnly(t *testing.T) {
	admin := func(nav *Navigation) bool { return strings.HasPrefix(nav.Target, "/admin") }

	tests := []struct {
		target string
		wrap   func(Middleware) Middleware
		want   []string
	}{
		{"/admin/users", func(mw Middleware) Middleware { return Skip(admin, mw) }, []string{"lifecycle"}},
		{"/docs", func(mw Middleware) Middleware { return Skip(admin, mw) }, []string{"audit>", "lifecycle", "<audit"}},
		{"/admin/users", func(mw Middleware) Middleware { return Only(admin, mw) }, []string{"audit>", "lifecycle", "<audit"}},
		{"/docs", func(mw Middleware) Middleware { return Only(admin, mw) }, []string{"lifecycle"}},
	}

	for _, tc := range tests {
		var log []string
		mw := tc.wrap(tracer("audit", &log))
		if err := mw.Handle(&Navigation{Target: tc.target}, lifecycleStub(&log)); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if !reflect.DeepEqual(log, tc.want) {
			t.Errorf("%s: log = %v, want %v", tc.target, log, tc.want)
		}
	}
}

func TestRouterMiddlewareWrapsLifecycle(t *testing.T) {
	var order []string
	r := New().MustMap(Definition{
		Path: "/docs",
		Init: func(to, from *Route) error {
			order = append(order, "init")
			return nil
		},
	})
	r.Use(MiddlewareFunc(func(nav *Navigation, next func() error) error {
		order = append(order, "before:"+nav.Target)
		err := next()
		order = append(order, "after:"+nav.Result.Status.String())
		return err
	}))

	if _, err := r.Navigate(context.Background(), "/docs"); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	want := []string{"before:/docs", "init", "after:completed"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRouterMiddlewareCanSkipNavigation(t *testing.T) {
	initCalled := false
	r := New().MustMap(Definition{
		Path: "/docs",
		Init: func(to, from *Route) error {
			initCalled = true
			return nil
		},
	})
	r.Use(MiddlewareFunc(func(*Navigation, func() error) error {
		return nil
	}))

	result, err := r.Navigate(context.Background(), "/docs")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if result.Route != nil {
		t.Errorf("Route = %+v, want nil", result.Route)
	}
	if initCalled {
		t.Error("init should not run when middleware does not call next")
	}
	if r.CurrentRoute() != nil {
		t.Error("current route should stay unset")
	}
}
