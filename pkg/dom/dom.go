// Package dom defines the document capabilities the route engine needs from
// its host: element selection, class manipulation, completion events and
// change notification.
package dom

// Event is delivered to listeners registered on an Element.
type Event struct {
	Type   string
	Target Element
}

// Listener handles an Event.
type Listener func(Event)

// Element is a node that can carry classes and receive events.
type Element interface {
	AddClass(names ...string)
	RemoveClass(names ...string)
	HasClass(name string) bool
	Classes() []string

	// AddEventListener registers fn for event and returns a function that
	// removes it again.
	AddEventListener(event string, fn Listener) (remove func())

	// Dispatch delivers event to the current listeners.
	Dispatch(event string)
}

// Document gives access to elements.
type Document interface {
	// QuerySelectorAll returns the elements matching selector in document
	// order.
	QuerySelectorAll(selector string) ([]Element, error)

	// TransitionEvent names the event fired when a CSS transition ends, or
	// "" when the document does not support transitions.
	TransitionEvent() string

	// OnChange registers fn to run after markup was inserted.
	OnChange(fn func()) (remove func())
}

// DefaultTransitionEvent is the standard transition completion event.
const DefaultTransitionEvent = "transitionend"
