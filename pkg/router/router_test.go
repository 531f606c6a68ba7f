package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/uri"
)

func noop(to, from *Route) error { return nil }

var basicRoutes = []Definition{
	{Path: "/", Handler: HandlerFunc(noop)},
	{Path: "/about", Handler: HandlerFunc(noop)},
}

func TestMapAcceptsDefinitions(t *testing.T) {
	r := New()
	if err := r.Map(basicRoutes...); err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if got := len(r.RouteList()); got != 2 {
		t.Errorf("len(RouteList()) = %d, want 2", got)
	}
}

func TestMapDoesNotOverwriteExistingPath(t *testing.T) {
	var state string
	r := New().
		MustMap(Definition{Path: "/", Init: func(to, from *Route) error {
			state = "old handler"
			return nil
		}}).
		MustMap(Definition{Path: "/", Init: func(to, from *Route) error {
			state = "new handler"
			return nil
		}}, basicRoutes[1])

	routes := r.Routes()
	if len(routes) != 2 {
		t.Fatalf("len(Routes()) = %d, want 2", len(routes))
	}
	if routes["/about"].Path() != "/about" {
		t.Errorf("routes[/about].Path() = %q", routes["/about"].Path())
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state != "old handler" {
		t.Errorf("state = %q, want %q", state, "old handler")
	}
}

func TestMapNestedChildren(t *testing.T) {
	r := New().MustMap(basicRoutes...).MustMap(Definition{
		Path:    "/parent/:id",
		Handler: HandlerFunc(noop),
		Children: []Definition{
			{Path: "child", Handler: HandlerFunc(noop)},
			{Path: "child2", Handler: HandlerFunc(noop)},
		},
	})

	routes := r.Routes()
	if len(routes) != 5 {
		t.Fatalf("len(Routes()) = %d, want 5", len(routes))
	}
	child := routes["/parent/:id/child"]
	if child == nil {
		t.Fatal("expected /parent/:id/child to be registered")
	}
	if child.Parent() == nil || child.Parent().Path() != "/parent/:id" {
		t.Errorf("child.Parent() = %v, want /parent/:id", child.Parent())
	}
	if child.Depth() != 1 {
		t.Errorf("child.Depth() = %d, want 1", child.Depth())
	}

	expected := []string{"/", "/about", "/parent/:id/child", "/parent/:id/child2", "/parent/:id"}
	list := r.RouteList()
	if len(list) != len(expected) {
		t.Fatalf("RouteList() = %v, want %v", list, expected)
	}
	for i := range expected {
		if list[i] != expected[i] {
			t.Errorf("RouteList()[%d] = %q, want %q", i, list[i], expected[i])
		}
	}
}

func TestMapByName(t *testing.T) {
	r := New().MustMap(
		Definition{Name: "home", Path: "/"},
		Definition{
			Name: "parent",
			Path: "/parent/:id",
			Children: []Definition{
				{Name: "child", Path: "child"},
			},
		},
	)

	names := r.RouteNames()
	tests := map[string]string{
		"home":   "/",
		"parent": "/parent/:id",
		"child":  "/parent/:id/child",
	}
	for name, path := range tests {
		rec := names[name]
		if rec == nil {
			t.Errorf("RouteNames()[%q] missing", name)
			continue
		}
		if rec.Path() != path {
			t.Errorf("RouteNames()[%q].Path() = %q, want %q", name, rec.Path(), path)
		}
	}
}

func TestMapPrependsSlashWithoutParent(t *testing.T) {
	r := New().MustMap(Definition{Path: "something"})

	if rec := r.Routes()["/something"]; rec == nil || rec.Path() != "/something" {
		t.Errorf("Routes()[/something] = %v", rec)
	}
}

func TestRouteLookup(t *testing.T) {
	r := New().MustMap(append([]Definition{{Path: "/other", Name: "test"}}, basicRoutes...)...)

	if rec := r.Route("/about"); rec == nil || rec.Path() != "/about" {
		t.Errorf("Route(/about) = %v", rec)
	}
	if rec := r.Route("test"); rec == nil || rec.Path() != "/other" {
		t.Errorf("Route(test) = %v", rec)
	}
	if rec := r.Route("missing"); rec != nil {
		t.Errorf("Route(missing) = %v, want nil", rec)
	}
}

func TestRouteListOrder(t *testing.T) {
	r := New().MustMap(basicRoutes...)

	list := r.RouteList()
	if len(list) != 2 || list[0] != "/" || list[1] != "/about" {
		t.Errorf("RouteList() = %v, want [/ /about]", list)
	}

	list[0] = "mutated"
	if r.RouteList()[0] != "/" {
		t.Error("RouteList() must return a copy")
	}
}

func TestDuplicateNameFirstWins(t *testing.T) {
	r := New().MustMap(
		Definition{Path: "/one", Name: "dup"},
		Definition{Path: "/two", Name: "dup"},
	)

	if rec := r.Route("dup"); rec.Path() != "/one" {
		t.Errorf("Route(dup).Path() = %q, want /one", rec.Path())
	}
}

func TestStrictModeRejectsDuplicates(t *testing.T) {
	r := New(WithStrict(true))
	if err := r.Map(Definition{Path: "/one", Name: "dup"}); err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	err := r.Map(Definition{Path: "/one"})
	if !errors.Is(err, ErrDuplicateRoute) {
		t.Errorf("duplicate path error = %v, want ErrDuplicateRoute", err)
	}
	if code := rkerrors.Code(err); code != "E002" {
		t.Errorf("Code() = %q, want E002", code)
	}

	err = r.Map(Definition{Path: "/two", Name: "dup"})
	if code := rkerrors.Code(err); code != "E003" {
		t.Errorf("Code() = %q, want E003", code)
	}
}

func TestMapInvalidPattern(t *testing.T) {
	r := New()
	err := r.Map(
		Definition{Path: "/ok"},
		Definition{Path: "/bad/:"},
		Definition{Path: "/never"},
	)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("Map() error = %v, want ErrInvalidPattern", err)
	}
	if code := rkerrors.Code(err); code != "E001" {
		t.Errorf("Code() = %q, want E001", code)
	}

	list := r.RouteList()
	if len(list) != 1 || list[0] != "/ok" {
		t.Errorf("RouteList() = %v, want [/ok]", list)
	}
}

func TestMustMapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustMap() should panic on an invalid pattern")
		}
	}()
	New().MustMap(Definition{Path: "/bad/:"})
}

func TestReset(t *testing.T) {
	r := New().MustMap(basicRoutes...)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	r.Reset()
	if len(r.RouteList()) != 0 || len(r.Routes()) != 0 || len(r.RouteNames()) != 0 {
		t.Error("Reset() should clear every route")
	}
	if r.CurrentRoute() != nil {
		t.Error("Reset() should clear the current route")
	}
}

func TestSegments(t *testing.T) {
	r := New(WithHistory(NewMemoryHistory("/one/two/three/four")))

	segments := r.Segments()
	expected := []string{"one", "two", "three", "four"}
	if len(segments) != len(expected) {
		t.Fatalf("Segments() = %v, want %v", segments, expected)
	}
	for i := range expected {
		if segments[i] != expected[i] {
			t.Errorf("Segments()[%d] = %q, want %q", i, segments[i], expected[i])
		}
		if got := r.Segment(i); got != expected[i] {
			t.Errorf("Segment(%d) = %q, want %q", i, got, expected[i])
		}
	}
	if got := r.Segment(4); got != "" {
		t.Errorf("Segment(4) = %q, want empty", got)
	}
	if got := r.Segment(-1); got != "" {
		t.Errorf("Segment(-1) = %q, want empty", got)
	}
}

func TestRouterURI(t *testing.T) {
	r := New(WithHistory(NewMemoryHistory("/test2/foo/bar/baz?x=1")))

	u, err := r.URI()
	if err != nil {
		t.Fatalf("URI() error = %v", err)
	}
	if u.Path != "/test2/foo/bar/baz" || u.Query["x"] != "1" {
		t.Errorf("URI() = %+v", u)
	}
	if len(u.Segments) != 4 || u.Segments[0] != "test2" {
		t.Errorf("URI().Segments = %v", u.Segments)
	}

	u, err = r.URI("https://www.weepower.com:9000/scripts?foo=bar&baz=qux#hash")
	if err != nil {
		t.Fatalf("URI(raw) error = %v", err)
	}
	if u.Path != "/scripts" || u.Hash != "hash" || u.Query["baz"] != "qux" {
		t.Errorf("URI(raw) = %+v", u)
	}
}

func TestRouterMatchDoesNotNavigate(t *testing.T) {
	initCalled := false
	r := New().MustMap(Definition{
		Path: "/blog/:id",
		Init: func(to, from *Route) error {
			initCalled = true
			return nil
		},
	})

	route, err := r.Match("/blog/5")
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if route == nil || route.Params["id"] != "5" {
		t.Fatalf("Match() = %+v", route)
	}
	if initCalled || r.CurrentRoute() != nil {
		t.Error("Match() must not run the lifecycle")
	}

	route, err = r.Match("/nothing")
	if err != nil || route != nil {
		t.Errorf("Match(/nothing) = %v, %v; want nil, nil", route, err)
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	r := New().MustMap(Definition{
		Path: "/docs",
		Name: "docs",
		Meta: Meta{"title": "Docs"},
		Init: noop,
	})

	data, err := r.Route("docs").MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	for _, want := range []string{`"path":"/docs"`, `"name":"docs"`, `"hooks":["init"]`, `"processed":false`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("MarshalJSON() = %s, missing %s", data, want)
		}
	}
}

func matchPaths(t *testing.T, r *Router, location string) []string {
	t.Helper()
	route, err := r.Match(location)
	if err != nil {
		t.Fatalf("Match(%q) error = %v", location, err)
	}
	if route == nil {
		return nil
	}
	paths := make([]string, len(route.Matches))
	for i, m := range route.Matches {
		paths[i] = m.Path()
	}
	return paths
}

func TestMatchIncludesAncestors(t *testing.T) {
	r := New().MustMap(
		Definition{Path: "/shop", Name: "shop", Children: []Definition{
			{Path: "cart", Name: "cart", Children: []Definition{
				{Path: ":item", Name: "item"},
			}},
		}},
		Definition{Path: "/files/*", Children: []Definition{
			{Path: "raw"},
		}},
		Definition{Path: "/admin", Filter: FilterName("staff"), Children: []Definition{
			{Path: "users"},
		}},
	)
	r.AddFilter("staff", func(_ Params, u *uri.URI) bool {
		return u.QueryValue("role") == "staff"
	})

	tests := []struct {
		location string
		want     []string
	}{
		{"/shop", []string{"/shop"}},
		{"/shop/cart", []string{"/shop/cart", "/shop"}},
		{"/shop/cart/42", []string{"/shop/cart/:item", "/shop/cart", "/shop"}},
		// The wildcard parent matches on its own and is listed once.
		{"/files/a/raw", []string{"/files/*/raw", "/files/*"}},
		{"/admin/users", []string{"/admin/users"}},
		{"/admin/users?role=staff", []string{"/admin/users", "/admin"}},
		{"/nope", nil},
	}

	for _, tc := range tests {
		got := matchPaths(t, r, tc.location)
		if strings.Join(got, ",") != strings.Join(tc.want, ",") {
			t.Errorf("Match(%q) = %v, want %v", tc.location, got, tc.want)
		}
	}

	route, _ := r.Match("/shop/cart/42")
	if route.Name != "item" || route.Params["item"] != "42" {
		t.Errorf("Match() name = %q params = %v", route.Name, route.Params)
	}
}
