package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidPattern is returned by Compile for malformed route paths.
var ErrInvalidPattern = errors.New("invalid route pattern")

// tokenKind classifies one path segment of a pattern.
type tokenKind uint8

const (
	tokenStatic tokenKind = iota
	tokenParam
	tokenWildcard
)

// key describes one capture of a compiled pattern.
type key struct {
	name      string
	paramType string
	wildcard  bool
}

// Specificity counts the token kinds of a pattern. Patterns with more static
// segments are more specific; wildcards make a pattern less specific.
type Specificity struct {
	Static    int
	Params    int
	Wildcards int
}

// Compare returns -1 when s is more specific than o, 1 when less specific
// and 0 when both rank equally.
func (s Specificity) Compare(o Specificity) int {
	switch {
	case s.Static != o.Static:
		if s.Static > o.Static {
			return -1
		}
		return 1
	case s.Wildcards != o.Wildcards:
		if s.Wildcards < o.Wildcards {
			return -1
		}
		return 1
	case s.Params != o.Params:
		if s.Params > o.Params {
			return -1
		}
		return 1
	}
	return 0
}

// Pattern is a compiled route path.
type Pattern struct {
	path        string
	re          *regexp.Regexp
	keys        []key
	specificity Specificity
}

// Compile converts a route path into a Pattern.
//
// Supported tokens, each occupying a whole segment:
//
//	:name        one non-empty segment
//	:name:int    one segment validated as int (also uint, uuid, string)
//	*name        greedy capture of one or more characters, may span "/"
//	*            anonymous greedy capture, keyed "0", "1", ...
//
// A path without tokens matches exactly. Matching is case insensitive and
// tolerates one trailing slash.
func Compile(path string) (*Pattern, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPattern)
	}

	p := &Pattern{path: path}
	seen := make(map[string]bool)
	anonymous := 0

	var b strings.Builder
	b.WriteString("(?i)^")

	for _, seg := range Segments(path) {
		kind, k, err := parseToken(seg)
		if err != nil {
			return nil, err
		}

		b.WriteString("/")
		switch kind {
		case tokenStatic:
			p.specificity.Static++
			b.WriteString(regexp.QuoteMeta(seg))
			continue
		case tokenParam:
			p.specificity.Params++
			b.WriteString("([^/]+)")
		case tokenWildcard:
			p.specificity.Wildcards++
			b.WriteString("(.+)")
			if k.name == "" {
				k.name = strconv.Itoa(anonymous)
				anonymous++
			}
		}

		if seen[k.name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q in %s", ErrInvalidPattern, k.name, path)
		}
		seen[k.name] = true
		p.keys = append(p.keys, k)
	}

	b.WriteString("/?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	p.re = re

	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(path string) *Pattern {
	p, err := Compile(path)
	if err != nil {
		panic(err)
	}
	return p
}

// parseToken classifies a segment and extracts its capture key.
func parseToken(seg string) (tokenKind, key, error) {
	switch {
	case strings.HasPrefix(seg, ":"):
		name, paramType := seg[1:], "string"
		if idx := strings.Index(name, ":"); idx != -1 {
			name, paramType = name[:idx], name[idx+1:]
		}
		if name == "" {
			return 0, key{}, fmt.Errorf("%w: empty parameter name in segment %q", ErrInvalidPattern, seg)
		}
		if !knownParamTypes[paramType] {
			return 0, key{}, fmt.Errorf("%w: unknown parameter type %q", ErrInvalidPattern, paramType)
		}
		return tokenParam, key{name: name, paramType: paramType}, nil

	case strings.HasPrefix(seg, "*"):
		name := seg[1:]
		if strings.ContainsAny(name, ":*") {
			return 0, key{}, fmt.Errorf("%w: malformed wildcard %q", ErrInvalidPattern, seg)
		}
		return tokenWildcard, key{name: name, wildcard: true}, nil

	case strings.Contains(seg, "*"):
		return 0, key{}, fmt.Errorf("%w: wildcard must occupy a whole segment, got %q", ErrInvalidPattern, seg)
	}

	return tokenStatic, key{}, nil
}

// Match reports whether path fully matches the pattern and returns the
// captured parameters. Typed parameters that fail validation do not match.
func (p *Pattern) Match(path string) (Params, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	params := make(Params, len(p.keys))
	for i, k := range p.keys {
		raw := m[i+1]
		if k.wildcard {
			raw = strings.TrimSuffix(raw, "/")
		}
		value, err := DecodeSegment(raw, k.wildcard)
		if err != nil {
			return nil, false
		}
		if err := ValidateParam(value, k.paramType); err != nil {
			return nil, false
		}
		params[k.name] = value
	}

	return params, true
}

// Path returns the path the pattern was compiled from.
func (p *Pattern) Path() string {
	return p.path
}

// Names returns the capture names in pattern order.
func (p *Pattern) Names() []string {
	names := make([]string, len(p.keys))
	for i, k := range p.keys {
		names[i] = k.name
	}
	return names
}

// ParamType returns the declared type of a named parameter.
func (p *Pattern) ParamType(name string) (string, bool) {
	for _, k := range p.keys {
		if k.name == name {
			if k.wildcard {
				return "[]string", true
			}
			return k.paramType, true
		}
	}
	return "", false
}

// Build fills the pattern with params and returns an escaped path. Every
// capture must be present and typed parameters must validate.
func (p *Pattern) Build(params Params) (string, error) {
	var b strings.Builder
	anonymous := 0
	for _, seg := range Segments(p.path) {
		kind, k, err := parseToken(seg)
		if err != nil {
			return "", err
		}
		b.WriteString("/")

		switch kind {
		case tokenStatic:
			b.WriteString(seg)
			continue
		case tokenWildcard:
			if k.name == "" {
				k.name = strconv.Itoa(anonymous)
				anonymous++
			}
		}

		value, ok := params[k.name]
		if !ok || value == "" {
			return "", fmt.Errorf("build %s: missing parameter %q", p.path, k.name)
		}
		if kind == tokenWildcard {
			parts := strings.Split(strings.Trim(value, "/"), "/")
			for i, part := range parts {
				parts[i] = url.PathEscape(part)
			}
			b.WriteString(strings.Join(parts, "/"))
			continue
		}
		if err := ValidateParam(value, k.paramType); err != nil {
			return "", fmt.Errorf("build %s: parameter %q: %w", p.path, k.name, err)
		}
		b.WriteString(url.PathEscape(value))
	}

	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// Specificity returns the token counts of the pattern.
func (p *Pattern) Specificity() Specificity {
	return p.specificity
}

// String returns the regular expression source of the pattern.
func (p *Pattern) String() string {
	return p.re.String()
}
