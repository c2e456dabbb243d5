package react

import (
	"github.com/dop251/goja"
)

type hookKind int

const (
	hookState hookKind = iota
	hookReducer
	hookEffect
	hookMemo
	hookRef
)

func (k hookKind) String() string {
	switch k {
	case hookState:
		return "useState"
	case hookReducer:
		return "useReducer"
	case hookEffect:
		return "useEffect"
	case hookMemo:
		return "useMemo"
	case hookRef:
		return "useRef"
	default:
		return "unknown"
	}
}

type hook struct {
	kind hookKind

	value    goja.Value
	dispatch goja.Value
	reducer  goja.Value

	deps    []goja.Value
	hasDeps bool

	effect  goja.Callable
	cleanup goja.Callable
}

// next returns the hook slot for the current call, creating it on first render.
func (l *Library) next(kind hookKind) (*Renderer, *fiber, *hook, bool) {
	r, f := l.active()

	idx := f.cursor
	f.cursor++

	if idx < len(f.hooks) {
		h := f.hooks[idx]
		if h.kind != kind {
			throwError(l.vm, "React has detected a change in the order of Hooks called by "+f.name+
				": expected "+h.kind.String()+" but got "+kind.String()+".")
		}
		return r, f, h, false
	}

	if f.mounted {
		throwError(l.vm, "Rendered more hooks than during the previous render.")
	}

	h := &hook{kind: kind}
	f.hooks = append(f.hooks, h)
	return r, f, h, true
}

func (l *Library) useState(call goja.FunctionCall) goja.Value {
	r, f, h, created := l.next(hookState)

	if created {
		initial := call.Argument(0)
		if fn, ok := goja.AssertFunction(initial); ok {
			initial = mustCall(fn)
		}
		h.value = initial
		h.dispatch = l.vm.ToValue(func(c goja.FunctionCall) goja.Value {
			next := c.Argument(0)
			if fn, ok := goja.AssertFunction(next); ok {
				next = mustCall(fn, h.value)
			}
			r.update(f, h, next)
			return goja.Undefined()
		})
	}

	return l.vm.NewArray(h.value, h.dispatch)
}

func (l *Library) useReducer(call goja.FunctionCall) goja.Value {
	r, f, h, created := l.next(hookReducer)

	if created {
		initial := call.Argument(1)
		if init, ok := goja.AssertFunction(call.Argument(2)); ok {
			initial = mustCall(init, initial)
		}
		h.value = initial
		h.dispatch = l.vm.ToValue(func(c goja.FunctionCall) goja.Value {
			reducer, ok := goja.AssertFunction(h.reducer)
			if !ok {
				throwError(l.vm, "useReducer: reducer is not a function")
			}
			r.update(f, h, mustCall(reducer, h.value, c.Argument(0)))
			return goja.Undefined()
		})
	}
	// the latest reducer wins, as it closes over the latest props
	h.reducer = call.Argument(0)

	return l.vm.NewArray(h.value, h.dispatch)
}

func (l *Library) useEffect(call goja.FunctionCall) goja.Value {
	r, f, h, created := l.next(hookEffect)

	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		throwError(l.vm, "useEffect expects a function as its first argument, got: "+describe(call.Argument(0)))
	}

	deps, hasDeps := readDeps(call.Argument(1))
	if created || depsChanged(h.deps, deps, h.hasDeps, hasDeps) {
		h.effect = fn
		h.deps, h.hasDeps = deps, hasDeps
		r.schedule(f, h)
	}

	return goja.Undefined()
}

func (l *Library) useMemo(call goja.FunctionCall) goja.Value {
	_, _, h, created := l.next(hookMemo)

	deps, hasDeps := readDeps(call.Argument(1))
	if created || depsChanged(h.deps, deps, h.hasDeps, hasDeps) {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			throwError(l.vm, "useMemo expects a function as its first argument, got: "+describe(call.Argument(0)))
		}
		h.value = mustCall(fn)
		h.deps, h.hasDeps = deps, hasDeps
	}

	return h.value
}

func (l *Library) useCallback(call goja.FunctionCall) goja.Value {
	_, _, h, created := l.next(hookMemo)

	deps, hasDeps := readDeps(call.Argument(1))
	if created || depsChanged(h.deps, deps, h.hasDeps, hasDeps) {
		h.value = call.Argument(0)
		h.deps, h.hasDeps = deps, hasDeps
	}

	return h.value
}

func (l *Library) useRef(call goja.FunctionCall) goja.Value {
	_, _, h, created := l.next(hookRef)

	if created {
		ref := l.vm.NewObject()
		_ = ref.Set("current", call.Argument(0))
		h.value = ref
	}

	return h.value
}

func (l *Library) useContext(call goja.FunctionCall) goja.Value {
	r, _ := l.active()

	ctx := call.Argument(0)
	if !l.isContext(ctx) {
		throwError(l.vm, "useContext expects a context object created by React.createContext")
	}

	return r.contextValue(ctx.(*goja.Object))
}
