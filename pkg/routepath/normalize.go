package routepath

import "strings"

// Normalize returns the absolute path of a route definition.
//
// One trailing slash is stripped. A path starting with "/" is returned as-is
// even when a parent is given, so absolute children opt out of nesting.
// Without a parent the path is made absolute. Otherwise the path is joined
// to the parent path and doubled slashes are collapsed.
func Normalize(path, parent string) string {
	path = strings.TrimSuffix(path, "/")

	switch {
	case path == "":
		if parent == "" {
			return "/"
		}
		return parent
	case path[0] == '/':
		return path
	case parent == "":
		return "/" + path
	}

	return Clean(parent + "/" + path)
}

// Clean collapses runs of forward slashes into one.
func Clean(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

// Segments splits a path into its non-empty components.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
