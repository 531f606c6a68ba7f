package memdom

import (
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/routekit/pkg/dom"
)

// Element wraps an element node of a Document.
type Element struct {
	doc  *Document
	node *html.Node

	mu        sync.Mutex
	listeners map[string][]*listener
}

type listener struct {
	fn dom.Listener
}

var _ dom.Element = (*Element)(nil)

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of an attribute, or "".
func (e *Element) Attr(key string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, key)
}

// Classes implements dom.Element.
func (e *Element) Classes() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return strings.Fields(attr(e.node, "class"))
}

// HasClass implements dom.Element.
func (e *Element) HasClass(name string) bool {
	return containsString(e.Classes(), name)
}

// AddClass implements dom.Element.
func (e *Element) AddClass(names ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	classes := strings.Fields(attr(e.node, "class"))
	for _, name := range names {
		for _, n := range strings.Fields(name) {
			if !containsString(classes, n) {
				classes = append(classes, n)
			}
		}
	}
	e.setClass(classes)
}

// RemoveClass implements dom.Element.
func (e *Element) RemoveClass(names ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	var drop []string
	for _, name := range names {
		drop = append(drop, strings.Fields(name)...)
	}
	classes := strings.Fields(attr(e.node, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if !containsString(drop, c) {
			kept = append(kept, c)
		}
	}
	e.setClass(kept)
}

// setClass writes the class attribute. Callers hold doc.mu.
func (e *Element) setClass(classes []string) {
	value := strings.Join(classes, " ")
	for i, a := range e.node.Attr {
		if a.Key == "class" {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: "class", Val: value})
}

// AddEventListener implements dom.Element.
func (e *Element) AddEventListener(event string, fn dom.Listener) (remove func()) {
	l := &listener{fn: fn}

	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], l)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			list := e.listeners[event]
			for i, candidate := range list {
				if candidate == l {
					e.listeners[event] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// ListenerCount returns the number of listeners for event.
func (e *Element) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// Dispatch implements dom.Element. Listeners run synchronously on the
// calling goroutine.
func (e *Element) Dispatch(event string) {
	e.mu.Lock()
	list := append([]*listener(nil), e.listeners[event]...)
	e.mu.Unlock()

	for _, l := range list {
		l.fn(dom.Event{Type: event, Target: e})
	}
}
