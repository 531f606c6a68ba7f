// Package transition delays route changes until the outgoing view finished
// its CSS transition.
//
// On leave, the configured class is added to every target element and the
// coordinator waits until each of them fired one completion event. A leave
// callback can be used instead of a class. A timeout bounds the wait in
// both cases and never fails the navigation.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/vango-dev/routekit/pkg/dom"
	"github.com/vango-dev/routekit/pkg/router"
)

// ErrLeave is wrapped by errors reported through a leave callback.
var ErrLeave = errors.New("leave transition failed")

// LeaveFunc runs a custom leave transition and calls done once finished.
// A non-nil error fails the navigation.
type LeaveFunc func(to, from *router.Route, done func(error))

// EnterFunc runs after the new route became active.
type EnterFunc func(to, from *router.Route)

// Config describes a transition.
type Config struct {
	// Target selects the elements that transition.
	Target string

	// Class is added on leave and removed on enter.
	Class string

	// Leave is used when no Class is configured.
	Leave LeaveFunc

	// Enter is called at the end of Enter.
	Enter EnterFunc

	// Timeout resolves Leave unconditionally once elapsed. Zero waits
	// indefinitely.
	Timeout time.Duration
}

// Coordinator runs leave/enter transitions against a document. It
// implements router.Transitioner.
type Coordinator struct {
	doc    dom.Document
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	active *state
}

var _ router.Transitioner = (*Coordinator)(nil)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a coordinator. doc may be nil when only a leave callback is
// configured.
func New(doc dom.Document, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		doc:    doc,
		cfg:    cfg,
		logger: slog.Default().With("component", "transition"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// state tracks one leave/enter pair.
type state struct {
	elements  []dom.Element
	removers  []func()
	completed atomic.Int64
	resolved  atomic.Bool
	done      chan error
}

func newState() *state {
	return &state{done: make(chan error, 1)}
}

// resolve settles the state. Only the first call has an effect.
func (s *state) resolve(err error) {
	if s.resolved.CompareAndSwap(false, true) {
		s.done <- err
	}
}

// count records the first completion event of an element and resolves once
// every element fired.
func (s *state) count() {
	total := int64(len(s.elements))
	for {
		n := s.completed.Load()
		if n >= total {
			return
		}
		if s.completed.CompareAndSwap(n, n+1) {
			if n+1 == total {
				s.resolve(nil)
			}
			return
		}
	}
}

// Leave implements router.Transitioner.
func (c *Coordinator) Leave(ctx context.Context, to, from *router.Route) error {
	st := newState()

	switch {
	case c.cfg.Class != "":
		elements, err := c.query()
		if err != nil {
			return err
		}
		if len(elements) == 0 {
			c.setActive(st)
			c.logger.Warn("no elements found, cannot apply leave transition",
				"target", c.cfg.Target)
			return nil
		}
		event := c.doc.TransitionEvent()
		if event == "" {
			c.setActive(st)
			c.logger.Warn("document does not report transition events, skipping leave transition",
				"target", c.cfg.Target)
			return nil
		}

		st.elements = elements
		for _, el := range elements {
			var fired atomic.Bool
			st.removers = append(st.removers, el.AddEventListener(event, func(dom.Event) {
				if fired.CompareAndSwap(false, true) {
					st.count()
				}
			}))
		}
		c.setActive(st)
		for _, el := range elements {
			el.AddClass(c.cfg.Class)
		}

	case c.cfg.Leave != nil:
		c.setActive(st)
		c.cfg.Leave(to, from, func(err error) {
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrLeave, err)
			}
			st.resolve(err)
		})

	case c.cfg.Timeout <= 0:
		c.setActive(st)
		return nil

	default:
		c.setActive(st)
	}

	var timeout <-chan time.Time
	if c.cfg.Timeout > 0 {
		timer := time.NewTimer(c.cfg.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-st.done:
		return err
	case <-timeout:
		st.resolve(nil)
		c.logger.Debug("leave transition timed out",
			"target", c.cfg.Target,
			"completed", st.completed.Load(),
			"elements", len(st.elements))
		return nil
	case <-ctx.Done():
		st.resolve(ctx.Err())
		return ctx.Err()
	}
}

// Enter implements router.Transitioner.
func (c *Coordinator) Enter(to, from *router.Route) {
	c.mu.Lock()
	st := c.active
	c.active = nil
	c.mu.Unlock()

	if c.cfg.Class != "" {
		var elements []dom.Element
		if st != nil && len(st.elements) > 0 {
			elements = st.elements
		} else if found, err := c.query(); err == nil {
			elements = found
		} else {
			c.logger.Warn("cannot query transition targets", "error", err)
		}

		if len(elements) == 0 {
			c.logger.Warn("no elements found, cannot apply enter transition",
				"target", c.cfg.Target)
		}
		if st != nil {
			for _, remove := range st.removers {
				remove()
			}
		}
		for _, el := range elements {
			el.RemoveClass(c.cfg.Class)
		}
	}

	if c.cfg.Enter != nil {
		c.cfg.Enter(to, from)
	}
}

// Completed returns the completion events counted by the active leave.
func (c *Coordinator) Completed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return int(c.active.completed.Load())
}

// Pending returns the elements of the active leave that did not fire yet.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return len(c.active.elements) - int(c.active.completed.Load())
}

func (c *Coordinator) setActive(st *state) {
	c.mu.Lock()
	c.active = st
	c.mu.Unlock()
}

func (c *Coordinator) query() ([]dom.Element, error) {
	if c.doc == nil || c.cfg.Target == "" {
		return nil, nil
	}
	elements, err := c.doc.QuerySelectorAll(c.cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("transition: query %q: %w", c.cfg.Target, err)
	}
	return elements, nil
}
