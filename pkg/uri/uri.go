// Package uri parses navigation targets into structured locations.
//
// A target is either a bare path ("/blog/5?sort=asc#top") or an absolute
// address ("https://example.com:9000/blog/5"). Scheme, host and port only
// survive in URL; every other field describes the path onward.
package uri

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vango-dev/routekit/pkg/routepath"
)

// URI is a parsed navigation target. It is immutable once returned.
type URI struct {
	// Full is path + query + hash, e.g. "/scripts?foo=bar#hash".
	Full string `json:"full"`

	// Path is the canonicalized path.
	Path string `json:"path"`

	// Query maps query keys to values. The last occurrence of a key wins.
	Query map[string]string `json:"query"`

	// Hash is the fragment without "#", empty when absent.
	Hash string `json:"hash"`

	// Segments are the non-empty path components.
	Segments []string `json:"segments"`

	// URL is the absolute address for absolute input, otherwise Full.
	URL string `json:"url"`
}

// Parse parses a bare path or an absolute address.
func Parse(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}

	canon, err := routepath.CanonicalizePath(u.EscapedPath())
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}

	segments, err := routepath.DecodePathSegments(canon.Path)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if segments == nil {
		segments = []string{}
	}

	out := &URI{
		Path:     canon.Path,
		Query:    parseQuery(u.RawQuery),
		Hash:     u.Fragment,
		Segments: segments,
	}

	var full strings.Builder
	full.WriteString(out.Path)
	if u.RawQuery != "" {
		full.WriteString("?")
		full.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		full.WriteString("#")
		full.WriteString(u.EscapedFragment())
	}
	out.Full = full.String()

	if u.IsAbs() || u.Host != "" {
		out.URL = raw
	} else {
		out.URL = out.Full
	}

	return out, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) *URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Resolve resolves ref against base and parses the result. A ref that is
// already absolute is parsed unchanged.
func Resolve(base, ref string) (*URI, error) {
	b, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", ref, err)
	}
	return Parse(b.ResolveReference(r).String())
}

// parseQuery decodes a raw query string. Repeated keys keep the last value.
func parseQuery(raw string) map[string]string {
	query := make(map[string]string)
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			value = v
		}
		query[key] = value
	}
	return query
}

// Segment returns the segment at index i, or "" when out of range.
func (u *URI) Segment(i int) string {
	if i < 0 || i >= len(u.Segments) {
		return ""
	}
	return u.Segments[i]
}

// QueryValue returns the value of a query key, or "" when absent.
func (u *URI) QueryValue(key string) string {
	return u.Query[key]
}

// String returns Full.
func (u *URI) String() string {
	return u.Full
}
