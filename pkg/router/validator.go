package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/routekit/pkg/routepath"
)

// Validator checks definitions before they are mapped. Mapping itself
// never reports duplicates outside strict mode, so tools use Validate to
// surface every problem at once.
type Validator struct {
	defs    []Definition
	filters map[string]bool
	errors  []ValidationError
}

// ValidationError describes one problem in a set of definitions.
type ValidationError struct {
	// Type is the error category
	Type ValidationErrorType

	// Message is the human-readable error message
	Message string

	// Path is the absolute route path
	Path string

	// Details contains additional error-specific information
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationErrorType categorizes validation errors.
type ValidationErrorType string

const (
	// ErrorInvalidPattern indicates a path that does not compile.
	ErrorInvalidPattern ValidationErrorType = "INVALID_PATTERN"

	// ErrorDuplicateRoute indicates two definitions resolve to the same path.
	// The later one is ignored by Map.
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorDuplicateName indicates two definitions share a name.
	ErrorDuplicateName ValidationErrorType = "DUPLICATE_NAME"

	// ErrorParamConstraintConflict indicates the same param has different
	// type constraints at the same position.
	// Example: /users/:id:int and /users/:id
	ErrorParamConstraintConflict ValidationErrorType = "PARAM_CONSTRAINT_CONFLICT"

	// ErrorAmbiguousRoute indicates patterns that differ only in param
	// names, so the later one can never be the most specific match.
	// Example: /posts/:id and /posts/:slug
	ErrorAmbiguousRoute ValidationErrorType = "AMBIGUOUS_ROUTE"

	// ErrorUnknownFilter indicates a FilterName reference to a filter
	// that is not known.
	ErrorUnknownFilter ValidationErrorType = "UNKNOWN_FILTER"
)

// MultiValidationError wraps multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// NewValidator creates a validator for defs. filters lists the filter
// names that will be registered; with no names given, filter references
// are not checked.
func NewValidator(defs []Definition, filters ...string) *Validator {
	v := &Validator{defs: defs}
	if len(filters) > 0 {
		v.filters = make(map[string]bool, len(filters))
		for _, f := range filters {
			v.filters[f] = true
		}
	}
	return v
}

// flatRoute is a definition resolved to its absolute path.
type flatRoute struct {
	path    string
	name    string
	filter  FilterRef
	pattern *routepath.Pattern
}

// Validate checks all definitions for conflicts and errors.
// Returns nil if all routes are valid, or a MultiValidationError with all errors.
func (v *Validator) Validate() error {
	v.errors = nil

	routes := v.flatten(v.defs, "", nil)
	v.validateDuplicates(routes)
	v.validateParamConstraints(routes)
	v.validateAmbiguity(routes)
	v.validateFilters(routes)

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

// Validate checks defs without filter references. See Validator.
func Validate(defs ...Definition) error {
	return NewValidator(defs).Validate()
}

func (v *Validator) flatten(defs []Definition, parent string, out []flatRoute) []flatRoute {
	for _, def := range defs {
		path := routepath.Normalize(def.Path, parent)
		pattern, err := routepath.Compile(path)
		if err != nil {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorInvalidPattern,
				Message: fmt.Sprintf("Route %s does not compile", path),
				Path:    path,
				Details: err.Error(),
			})
		}
		// Children first, matching registration order.
		out = v.flatten(def.Children, path, out)
		out = append(out, flatRoute{path: path, name: def.Name, filter: def.Filter, pattern: pattern})
	}
	return out
}

func (v *Validator) validateDuplicates(routes []flatRoute) {
	paths := make(map[string]int)
	names := make(map[string]string)
	for _, r := range routes {
		paths[r.path]++
		if paths[r.path] == 2 {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorDuplicateRoute,
				Message: fmt.Sprintf("Route %s is defined more than once", r.path),
				Path:    r.path,
				Details: "the first definition wins",
			})
		}
		if r.name == "" {
			continue
		}
		if first, ok := names[r.name]; ok && first != r.path {
			v.errors = append(v.errors, ValidationError{
				Type:    ErrorDuplicateName,
				Message: fmt.Sprintf("Route name %q is used by %s and %s", r.name, first, r.path),
				Path:    r.path,
			})
			continue
		}
		names[r.name] = r.path
	}
}

// shape replaces every capture with a placeholder, so patterns that only
// differ in param names share a shape. Param types stay part of the shape.
func shape(path string) (string, []string) {
	segs := routepath.Segments(path)
	var captures []string
	for i, seg := range segs {
		switch {
		case strings.HasPrefix(seg, ":"):
			captures = append(captures, seg)
			_, typ, ok := strings.Cut(seg[1:], ":")
			if !ok {
				typ = "string"
			}
			segs[i] = ":" + typ
		case strings.HasPrefix(seg, "*"):
			captures = append(captures, seg)
			segs[i] = "*"
		default:
			segs[i] = strings.ToLower(seg)
		}
	}
	return "/" + strings.Join(segs, "/"), captures
}

func (v *Validator) validateParamConstraints(routes []flatRoute) {
	type paramKey struct {
		prefix string
		name   string
	}
	types := make(map[paramKey]map[string]bool)
	var order []paramKey

	for _, r := range routes {
		if r.pattern == nil {
			continue
		}
		segs := routepath.Segments(r.path)
		for i, seg := range segs {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			prefix, _ := shape("/" + strings.Join(segs[:i], "/"))
			name := r.pattern.Names()[countCaptures(segs[:i])]
			typ, _ := r.pattern.ParamType(name)

			key := paramKey{prefix: prefix, name: name}
			if types[key] == nil {
				types[key] = make(map[string]bool)
				order = append(order, key)
			}
			types[key][typ] = true
		}
	}

	for _, key := range order {
		if len(types[key]) <= 1 {
			continue
		}
		list := make([]string, 0, len(types[key]))
		for typ := range types[key] {
			list = append(list, typ)
		}
		sort.Strings(list)
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorParamConstraintConflict,
			Message: fmt.Sprintf("Conflicting parameter constraints for '%s' at %s", key.name, key.prefix),
			Path:    key.prefix,
			Details: fmt.Sprintf("Types: %s", strings.Join(list, " vs ")),
		})
	}
}

func countCaptures(segs []string) int {
	n := 0
	for _, s := range segs {
		if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "*") {
			n++
		}
	}
	return n
}

func (v *Validator) validateAmbiguity(routes []flatRoute) {
	seen := make(map[string]string)
	for _, r := range routes {
		if r.pattern == nil {
			continue
		}
		s, captures := shape(r.path)
		if len(captures) == 0 {
			continue
		}
		first, ok := seen[s]
		if !ok {
			seen[s] = r.path
			continue
		}
		if first == r.path {
			continue
		}
		v.errors = append(v.errors, ValidationError{
			Type:    ErrorAmbiguousRoute,
			Message: fmt.Sprintf("Route %s is shadowed by %s", r.path, first),
			Path:    r.path,
			Details: "both match the same locations; give one a static segment or a filter",
		})
	}
}

func (v *Validator) validateFilters(routes []flatRoute) {
	if v.filters == nil {
		return
	}
	for _, r := range routes {
		names, ok := r.filter.(filterNames)
		if !ok {
			continue
		}
		for _, name := range names {
			if !v.filters[name] {
				v.errors = append(v.errors, ValidationError{
					Type:    ErrorUnknownFilter,
					Message: fmt.Sprintf("Route %s references unknown filter %q", r.path, name),
					Path:    r.path,
				})
			}
		}
	}
}

// Validate checks the router's table and filters against defs before
// they are mapped.
func (r *Router) Validate(defs ...Definition) error {
	r.mu.RLock()
	filters := make([]string, 0, len(r.filters))
	for name := range r.filters {
		filters = append(filters, name)
	}
	r.mu.RUnlock()
	if len(filters) == 0 {
		// An empty set still checks references.
		return (&Validator{defs: defs, filters: map[string]bool{}}).Validate()
	}
	return NewValidator(defs, filters...).Validate()
}
