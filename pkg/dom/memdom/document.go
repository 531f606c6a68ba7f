// Package memdom is an in-memory dom.Document backed by an HTML tree from
// golang.org/x/net/html. It lets transitions and dev tooling run without a
// browser: events are dispatched explicitly.
package memdom

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/routekit/pkg/dom"
)

// Document is a parsed HTML document.
type Document struct {
	mu       sync.RWMutex
	root     *html.Node
	elements map[*html.Node]*Element
	event    string

	changeMu  sync.Mutex
	onChange  map[int]func()
	nextWatch int
}

var _ dom.Document = (*Document)(nil)

// Parse parses markup as a full HTML document.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	return &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
		event:    dom.DefaultTransitionEvent,
		onChange: make(map[int]func()),
	}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(markup string) *Document {
	d, err := Parse(markup)
	if err != nil {
		panic(err)
	}
	return d
}

// New returns an empty document.
func New() *Document {
	return MustParse("")
}

// TransitionEvent implements dom.Document.
func (d *Document) TransitionEvent() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.event
}

// SetTransitionEvent changes the reported completion event. An empty name
// marks the document as not supporting transitions.
func (d *Document) SetTransitionEvent(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.event = name
}

// QuerySelectorAll implements dom.Document.
func (d *Document) QuerySelectorAll(selector string) ([]dom.Element, error) {
	groups, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var out []dom.Element
	walk(d.root, func(n *html.Node) {
		for _, c := range groups {
			if c.matches(n) {
				out = append(out, d.wrap(n))
				return
			}
		}
	})
	return out, nil
}

// QuerySelector returns the first element matching selector, or nil.
func (d *Document) QuerySelector(selector string) (*Element, error) {
	all, err := d.QuerySelectorAll(selector)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0].(*Element), nil
}

// Append parses markup as a fragment and appends it to every element
// matching selector. It returns the number of targets and notifies change
// watchers when at least one element was modified.
func (d *Document) Append(selector, markup string) (int, error) {
	groups, err := parseSelector(selector)
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	var targets []*html.Node
	walk(d.root, func(n *html.Node) {
		for _, c := range groups {
			if c.matches(n) {
				targets = append(targets, n)
				return
			}
		}
	})
	for _, target := range targets {
		nodes, err := html.ParseFragment(strings.NewReader(markup), target)
		if err != nil {
			d.mu.Unlock()
			return 0, fmt.Errorf("memdom: parse fragment: %w", err)
		}
		for _, n := range nodes {
			target.AppendChild(n)
		}
	}
	d.mu.Unlock()

	if len(targets) > 0 {
		d.notify()
	}
	return len(targets), nil
}

// OnChange implements dom.Document.
func (d *Document) OnChange(fn func()) (remove func()) {
	d.changeMu.Lock()
	defer d.changeMu.Unlock()
	id := d.nextWatch
	d.nextWatch++
	d.onChange[id] = fn
	return func() {
		d.changeMu.Lock()
		defer d.changeMu.Unlock()
		delete(d.onChange, id)
	}
}

func (d *Document) notify() {
	d.changeMu.Lock()
	watchers := make([]func(), 0, len(d.onChange))
	for _, fn := range d.onChange {
		watchers = append(watchers, fn)
	}
	d.changeMu.Unlock()

	for _, fn := range watchers {
		fn()
	}
}

// Body renders the children of the body element.
func (d *Document) Body() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var body *html.Node
	walk(d.root, func(n *html.Node) {
		if body == nil && n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
		}
	})
	if body == nil {
		return "", nil
	}

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// wrap returns the stable Element for n. Callers hold d.mu.
func (d *Document) wrap(n *html.Node) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{
		doc:       d,
		node:      n,
		listeners: make(map[string][]*listener),
	}
	d.elements[n] = el
	return el
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
