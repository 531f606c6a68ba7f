package router

import (
	"errors"
	"log/slog"
	"sort"

	rkerrors "github.com/vango-dev/routekit/internal/errors"
	"github.com/vango-dev/routekit/pkg/routepath"
	"github.com/vango-dev/routekit/pkg/uri"
)

var (
	// ErrInvalidPattern is wrapped by registration errors for paths that
	// cannot be compiled.
	ErrInvalidPattern = routepath.ErrInvalidPattern

	// ErrDuplicateRoute is wrapped by registration errors in strict mode
	// when a path or name is already taken.
	ErrDuplicateRoute = errors.New("duplicate route")
)

// Table holds the registered routes. The zero value is not usable; create
// one with NewTable. A Table is not safe for concurrent mutation; the
// Router guards it.
type Table struct {
	list   []string
	byPath map[string]*Record
	byName map[string]*Record
	strict bool
	seq    int
}

// NewTable creates an empty route table. In strict mode duplicate paths
// and names are reported as errors instead of being ignored.
func NewTable(strict bool) *Table {
	return &Table{
		byPath: make(map[string]*Record),
		byName: make(map[string]*Record),
		strict: strict,
	}
}

// Register adds definitions depth-first. Children are registered before
// their parent is appended to the list. The first registration of a path
// or name wins. On error, records registered before the failing one stay.
func (t *Table) Register(defs ...Definition) error {
	for _, def := range defs {
		if err := t.register(def, nil); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) register(def Definition, parent *Record) error {
	parentPath, depth := "", 0
	if parent != nil {
		parentPath, depth = parent.path, parent.depth+1
	}
	path := routepath.Normalize(def.Path, parentPath)

	existing := t.byPath[path]
	if existing != nil && t.strict {
		return rkerrors.New("E002").
			WithRoute(path).
			Wrap(ErrDuplicateRoute)
	}
	if def.Name != "" && t.strict && t.byName[def.Name] != nil {
		return rkerrors.New("E003").
			WithRoute(path).
			WithDetail(def.Name).
			Wrap(ErrDuplicateRoute)
	}

	pattern, err := routepath.Compile(path)
	if err != nil {
		return rkerrors.New("E001").
			WithRoute(path).
			WithSuggestion("Use :name, :name:type, *name or * segments").
			Wrap(err)
	}

	rec := &Record{
		path:    path,
		name:    def.Name,
		parent:  parent,
		pattern: pattern,
		meta:    def.Meta.clone(),
		handler: def.Handler,
		filter:  def.Filter,
		hooks:   resolveHooks(def),
		depth:   depth,
	}

	// Children of an already registered path nest under the existing record.
	owner := rec
	if existing != nil {
		owner = existing
	}
	for _, child := range def.Children {
		if err := t.register(child, owner); err != nil {
			return err
		}
	}

	if existing == nil {
		t.seq++
		rec.order = t.seq
		t.list = append(t.list, path)
		t.byPath[path] = rec
	}
	if def.Name != "" && t.byName[def.Name] == nil {
		if existing == nil {
			t.byName[def.Name] = rec
		} else {
			t.byName[def.Name] = existing
		}
	}
	return nil
}

// List returns the registered paths in registration order.
func (t *Table) List() []string {
	out := make([]string, len(t.list))
	copy(out, t.list)
	return out
}

// ByPath returns the record registered for an absolute path.
func (t *Table) ByPath(path string) *Record {
	return t.byPath[path]
}

// ByName returns the record registered under name.
func (t *Table) ByName(name string) *Record {
	return t.byName[name]
}

// Lookup resolves a selector as a path first and then as a name.
func (t *Table) Lookup(selector string) *Record {
	if rec := t.byPath[selector]; rec != nil {
		return rec
	}
	return t.byName[selector]
}

// All returns a copy of the path map.
func (t *Table) All() map[string]*Record {
	out := make(map[string]*Record, len(t.byPath))
	for k, v := range t.byPath {
		out[k] = v
	}
	return out
}

// Names returns a copy of the name map.
func (t *Table) Names() map[string]*Record {
	out := make(map[string]*Record, len(t.byName))
	for k, v := range t.byName {
		out[k] = v
	}
	return out
}

// Len returns the number of registered paths.
func (t *Table) Len() int {
	return len(t.list)
}

// Reset removes every route.
func (t *Table) Reset() {
	t.list = nil
	t.byPath = make(map[string]*Record)
	t.byName = make(map[string]*Record)
	t.seq = 0
}

type candidate struct {
	rec    *Record
	params Params
}

// Match returns the route for u, or nil when no record matches. Records
// whose own pattern matches come first, ordered deepest first, then by
// specificity, then by registration. The ancestors of the most specific
// one follow. Records whose filter rejects the location are left out.
func (t *Table) Match(u *uri.URI, filters map[string]FilterFunc) *Route {
	return t.match(u, filterSet(filters), slog.Default())
}

func (t *Table) match(u *uri.URI, fs filterSet, logger *slog.Logger) *Route {
	var found []candidate
	for _, path := range t.list {
		rec := t.byPath[path]
		params, ok := rec.pattern.Match(u.Path)
		if !ok {
			continue
		}
		if rec.filter != nil && !rec.filter.evaluate(fs, params, u, logger) {
			continue
		}
		found = append(found, candidate{rec: rec, params: params})
	}
	if len(found) == 0 {
		return nil
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i].rec, found[j].rec
		if a.depth != b.depth {
			return a.depth > b.depth
		}
		if c := a.pattern.Specificity().Compare(b.pattern.Specificity()); c != 0 {
			return c < 0
		}
		return a.order < b.order
	})

	best := found[0]
	matches := make([]*Record, 0, len(found)+best.rec.depth)
	seen := make(map[*Record]bool, len(found)+best.rec.depth)
	for _, c := range found {
		matches = append(matches, c.rec)
		seen[c.rec] = true
	}

	// Ancestors of the most specific record follow, nearest first. They
	// see the child's params; a rejecting filter leaves one out.
	for p := best.rec.parent; p != nil; p = p.parent {
		if seen[p] {
			continue
		}
		if p.filter != nil && !p.filter.evaluate(fs, best.params, u, logger) {
			continue
		}
		matches = append(matches, p)
		seen[p] = true
	}
	return newRoute(u, matches, best.params)
}
