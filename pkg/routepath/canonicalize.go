// Package routepath normalizes, canonicalizes and compiles route paths.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Location errors. A location failing one of these never reaches the
// matcher.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-wildcard segment")
)

// CanonicalizeResult is a location split into its canonical path and the
// untouched query.
type CanonicalizeResult struct {
	Path string

	// Query has no leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// CanonicalizePath rewrites the path part of a location into the form the
// matcher sees: absolute, single slashes, no trailing slash, "." and ".."
// resolved. Percent escapes stay encoded. Anything after "?" is returned
// as Query without inspection.
func CanonicalizePath(input string) (CanonicalizeResult, error) {
	path, query, _ := strings.Cut(input, "?")
	if err := checkRawPath(path); err != nil {
		return CanonicalizeResult{}, err
	}

	segments, err := resolveDots(Segments(path))
	if err != nil {
		return CanonicalizeResult{}, err
	}

	canon := "/" + strings.Join(segments, "/")
	return CanonicalizeResult{Path: canon, Query: query, Changed: canon != path}, nil
}

func checkRawPath(path string) error {
	switch {
	case strings.ContainsRune(path, '\\'):
		return ErrBackslashInPath
	case strings.ContainsRune(path, 0), strings.Contains(strings.ToUpper(path), "%00"):
		return ErrNullByteInPath
	}
	if strings.ContainsRune(path, '%') {
		if _, err := url.PathUnescape(path); err != nil {
			return ErrInvalidPercentEscape
		}
	}
	return nil
}

// resolveDots drops "." and lets ".." remove its predecessor, reusing the
// backing array of segments.
func resolveDots(segments []string) ([]string, error) {
	out := segments[:0]
	for _, seg := range segments {
		switch seg {
		case ".":
		case "..":
			if len(out) == 0 {
				return nil, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return out, nil
}

// DecodeSegment decodes a single captured path value. Outside wildcards a
// decoded "/" is rejected since the capture would span segments.
func DecodeSegment(segment string, isWildcard bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !isWildcard && strings.ContainsRune(decoded, '/') {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// DecodePathSegments returns the decoded non-empty components of path, or
// nil when there are none.
func DecodePathSegments(path string) ([]string, error) {
	raw := Segments(path)
	if len(raw) == 0 {
		return nil, nil
	}
	decoded := make([]string, len(raw))
	for i, seg := range raw {
		d, err := DecodeSegment(seg, true)
		if err != nil {
			return nil, err
		}
		decoded[i] = d
	}
	return decoded, nil
}

// CanonicalizeAndValidateNavPath accepts only in-app locations: they start
// with a single "/" so neither full URLs nor protocol-relative ones get
// through. The canonical path is returned with its query.
func CanonicalizeAndValidateNavPath(path string) (string, error) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "", ErrInvalidPath
	}
	res, err := CanonicalizePath(path)
	if err != nil {
		return "", err
	}
	if res.Query == "" {
		return res.Path, nil
	}
	return res.Path + "?" + res.Query, nil
}
