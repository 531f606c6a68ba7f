package router

// Phase identifies a lifecycle stage of a navigation.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseBeforeInit
	PhaseBeforeUpdate
	PhaseInit
	PhaseUpdate
	PhaseAfter
	PhaseUnload
	PhasePop
)

var allPhases = []Phase{
	PhaseBefore, PhaseBeforeInit, PhaseBeforeUpdate,
	PhaseInit, PhaseUpdate, PhaseAfter, PhaseUnload, PhasePop,
}

// String returns the hook name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseBeforeInit:
		return "beforeInit"
	case PhaseBeforeUpdate:
		return "beforeUpdate"
	case PhaseInit:
		return "init"
	case PhaseUpdate:
		return "update"
	case PhaseAfter:
		return "after"
	case PhaseUnload:
		return "unload"
	case PhasePop:
		return "pop"
	default:
		return "unknown"
	}
}

// Handler contributes lifecycle hooks to a route. The implementations are
// HandlerFunc, *RouteHandler and HandlerList.
type Handler interface {
	contribute(hs *hookSet)
}

// HandlerFunc runs on both init and update.
type HandlerFunc func(to, from *Route) error

func (f HandlerFunc) contribute(hs *hookSet) {
	if f == nil {
		return
	}
	hs.init = append(hs.init, HookFunc(f))
	hs.update = append(hs.update, HookFunc(f))
}

// RouteHandler groups hooks for the phases a handler may take part in.
type RouteHandler struct {
	BeforeInit   BeforeFunc
	BeforeUpdate BeforeFunc
	Init         HookFunc
	Update       HookFunc
	Unload       *Unload
}

func (h *RouteHandler) contribute(hs *hookSet) {
	if h == nil {
		return
	}
	hs.addBefore(PhaseBeforeInit, h.BeforeInit)
	hs.addBefore(PhaseBeforeUpdate, h.BeforeUpdate)
	hs.add(PhaseInit, h.Init)
	hs.add(PhaseUpdate, h.Update)
	if h.Unload != nil {
		hs.unload = append(hs.unload, h.Unload)
	}
}

// HandlerList is an ordered mix of handlers. Hooks of the same phase run in
// list order.
type HandlerList []Handler

func (l HandlerList) contribute(hs *hookSet) {
	for _, h := range l {
		if h != nil {
			h.contribute(hs)
		}
	}
}

// hookSet is the flattened form of a definition's hooks.
type hookSet struct {
	before       []BeforeFunc
	beforeInit   []BeforeFunc
	beforeUpdate []BeforeFunc
	init         []HookFunc
	update       []HookFunc
	after        []HookFunc
	unload       []*Unload
	pop          []HookFunc
}

// resolveHooks flattens the definition's own hooks followed by the ones
// contributed by its handler.
func resolveHooks(def Definition) hookSet {
	var hs hookSet
	hs.addBefore(PhaseBefore, def.Before)
	hs.addBefore(PhaseBeforeInit, def.BeforeInit)
	hs.addBefore(PhaseBeforeUpdate, def.BeforeUpdate)
	hs.add(PhaseInit, def.Init)
	hs.add(PhaseUpdate, def.Update)
	hs.add(PhaseAfter, def.After)
	hs.add(PhasePop, def.Pop)
	if def.Unload != nil {
		hs.unload = append(hs.unload, def.Unload)
	}
	if def.Handler != nil {
		def.Handler.contribute(&hs)
	}
	return hs
}

func (hs *hookSet) addBefore(phase Phase, fn BeforeFunc) {
	if fn == nil {
		return
	}
	switch phase {
	case PhaseBefore:
		hs.before = append(hs.before, fn)
	case PhaseBeforeInit:
		hs.beforeInit = append(hs.beforeInit, fn)
	case PhaseBeforeUpdate:
		hs.beforeUpdate = append(hs.beforeUpdate, fn)
	}
}

func (hs *hookSet) add(phase Phase, fn HookFunc) {
	if fn == nil {
		return
	}
	switch phase {
	case PhaseInit:
		hs.init = append(hs.init, fn)
	case PhaseUpdate:
		hs.update = append(hs.update, fn)
	case PhaseAfter:
		hs.after = append(hs.after, fn)
	case PhasePop:
		hs.pop = append(hs.pop, fn)
	}
}

// gate is a before-hook together with the phase it was registered for.
type gate struct {
	phase Phase
	fn    BeforeFunc
}

// gates returns the before-hooks for a record: Before always, then
// BeforeInit or BeforeUpdate depending on whether it was processed.
func (hs *hookSet) gates(processed bool) []gate {
	out := make([]gate, 0, len(hs.before)+len(hs.beforeInit)+len(hs.beforeUpdate))
	for _, fn := range hs.before {
		out = append(out, gate{PhaseBefore, fn})
	}
	if processed {
		for _, fn := range hs.beforeUpdate {
			out = append(out, gate{PhaseBeforeUpdate, fn})
		}
		return out
	}
	for _, fn := range hs.beforeInit {
		out = append(out, gate{PhaseBeforeInit, fn})
	}
	return out
}

func (hs *hookSet) has(phase Phase) bool {
	switch phase {
	case PhaseBefore:
		return len(hs.before) > 0
	case PhaseBeforeInit:
		return len(hs.beforeInit) > 0
	case PhaseBeforeUpdate:
		return len(hs.beforeUpdate) > 0
	case PhaseInit:
		return len(hs.init) > 0
	case PhaseUpdate:
		return len(hs.update) > 0
	case PhaseAfter:
		return len(hs.after) > 0
	case PhaseUnload:
		return len(hs.unload) > 0
	case PhasePop:
		return len(hs.pop) > 0
	}
	return false
}
