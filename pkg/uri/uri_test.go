package uri

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/routekit/pkg/routepath"
)

const testURI = "https://www.weepower.com:9000/scripts?foo=bar&baz=qux#hash"

func TestParseAbsolute(t *testing.T) {
	u, err := Parse(testURI)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if u.Path != "/scripts" {
		t.Errorf("Path = %q, want /scripts", u.Path)
	}
	if u.Hash != "hash" {
		t.Errorf("Hash = %q, want hash", u.Hash)
	}
	if want := map[string]string{"foo": "bar", "baz": "qux"}; !reflect.DeepEqual(u.Query, want) {
		t.Errorf("Query = %v, want %v", u.Query, want)
	}
	if u.Full != "/scripts?foo=bar&baz=qux#hash" {
		t.Errorf("Full = %q", u.Full)
	}
	if u.URL != testURI {
		t.Errorf("URL = %q, want %q", u.URL, testURI)
	}
	if !reflect.DeepEqual(u.Segments, []string{"scripts"}) {
		t.Errorf("Segments = %v", u.Segments)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		path     string
		hash     string
		query    map[string]string
		segments []string
		full     string
	}{
		{
			name:     "path with query and hash",
			raw:      "/test2?foo=bar&baz=qux#hash",
			path:     "/test2",
			hash:     "hash",
			query:    map[string]string{"foo": "bar", "baz": "qux"},
			segments: []string{"test2"},
			full:     "/test2?foo=bar&baz=qux#hash",
		},
		{
			name:     "no query or hash",
			raw:      "/test2/foo/bar/baz",
			path:     "/test2/foo/bar/baz",
			query:    map[string]string{},
			segments: []string{"test2", "foo", "bar", "baz"},
			full:     "/test2/foo/bar/baz",
		},
		{
			name:     "root",
			raw:      "/",
			path:     "/",
			query:    map[string]string{},
			segments: []string{},
			full:     "/",
		},
		{
			name:     "empty is root",
			raw:      "",
			path:     "/",
			query:    map[string]string{},
			segments: []string{},
			full:     "/",
		},
		{
			name:     "last repeated key wins",
			raw:      "/s?k=1&k=2",
			path:     "/s",
			query:    map[string]string{"k": "2"},
			segments: []string{"s"},
			full:     "/s?k=1&k=2",
		},
		{
			name:     "trailing slash and doubled slashes",
			raw:      "/one//two/",
			path:     "/one/two",
			query:    map[string]string{},
			segments: []string{"one", "two"},
			full:     "/one/two",
		},
		{
			name:     "escaped query and segments",
			raw:      "/hello%20world?q=a+b&flag",
			path:     "/hello%20world",
			query:    map[string]string{"q": "a b", "flag": ""},
			segments: []string{"hello world"},
			full:     "/hello%20world?q=a+b&flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.raw, err)
			}
			if u.Path != tt.path {
				t.Errorf("Path = %q, want %q", u.Path, tt.path)
			}
			if u.Hash != tt.hash {
				t.Errorf("Hash = %q, want %q", u.Hash, tt.hash)
			}
			if !reflect.DeepEqual(u.Query, tt.query) {
				t.Errorf("Query = %v, want %v", u.Query, tt.query)
			}
			if !reflect.DeepEqual(u.Segments, tt.segments) {
				t.Errorf("Segments = %v, want %v", u.Segments, tt.segments)
			}
			if u.Full != tt.full {
				t.Errorf("Full = %q, want %q", u.Full, tt.full)
			}
			if u.URL != tt.full {
				t.Errorf("URL = %q, want %q", u.URL, tt.full)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("/../secret"); !errors.Is(err, routepath.ErrPathEscapesRoot) {
		t.Errorf("Parse(escape) error = %v, want ErrPathEscapesRoot", err)
	}
	if _, err := Parse("/bad%zz"); err == nil {
		t.Error("Parse(bad escape) should fail")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic")
		}
	}()
	MustParse("/../x")
}

func TestResolve(t *testing.T) {
	u, err := Resolve("https://example.com/blog/posts", "drafts?x=1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if u.Path != "/blog/drafts" || u.Query["x"] != "1" {
		t.Errorf("Resolve() = %+v", u)
	}
	if u.URL != "https://example.com/blog/drafts?x=1" {
		t.Errorf("URL = %q", u.URL)
	}
}

func TestAccessors(t *testing.T) {
	u := MustParse("/one/two?x=y")

	if u.Segment(0) != "one" || u.Segment(1) != "two" {
		t.Errorf("Segment() = %q, %q", u.Segment(0), u.Segment(1))
	}
	if u.Segment(2) != "" || u.Segment(-1) != "" {
		t.Error("out of range Segment() should be empty")
	}
	if u.QueryValue("x") != "y" || u.QueryValue("missing") != "" {
		t.Error("QueryValue() mismatch")
	}
	if u.String() != "/one/two?x=y" {
		t.Errorf("String() = %q", u.String())
	}
}
