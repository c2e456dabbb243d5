package react

import (
	"github.com/dop251/goja"
)

const typeofKey = "$$typeof"

// Library is the React object handed to synthesized code. It is bound to a
// single runtime and routes hook calls to the renderer currently rendering.
type Library struct {
	vm     *goja.Runtime
	object *goja.Object

	elementTag  *goja.Object
	contextTag  *goja.Object
	providerTag *goja.Object
	consumerTag *goja.Object
	fragment    *goja.Object

	renderer *Renderer
}

// NewLibrary builds the React object for vm
func NewLibrary(vm *goja.Runtime) *Library {
	l := &Library{
		vm:          vm,
		object:      vm.NewObject(),
		elementTag:  vm.NewObject(),
		contextTag:  vm.NewObject(),
		providerTag: vm.NewObject(),
		consumerTag: vm.NewObject(),
		fragment:    vm.NewObject(),
	}

	_ = l.fragment.Set("displayName", "Fragment")

	set := func(name string, fn func(goja.FunctionCall) goja.Value) {
		_ = l.object.Set(name, fn)
	}

	_ = l.object.Set("Fragment", l.fragment)
	set("createElement", l.createElement)
	set("createContext", l.createContext)
	set("isValidElement", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(l.isElement(call.Argument(0)))
	})
	set("memo", func(call goja.FunctionCall) goja.Value {
		return call.Argument(0)
	})

	set("useState", l.useState)
	set("useReducer", l.useReducer)
	set("useEffect", l.useEffect)
	set("useLayoutEffect", l.useEffect)
	set("useMemo", l.useMemo)
	set("useCallback", l.useCallback)
	set("useRef", l.useRef)
	set("useContext", l.useContext)

	return l
}

// Object returns the value passed to synthesized code as React
func (l *Library) Object() *goja.Object {
	return l.object
}

// Runtime returns the runtime the library is bound to
func (l *Library) Runtime() *goja.Runtime {
	return l.vm
}

func (l *Library) createElement(call goja.FunctionCall) goja.Value {
	typ := call.Argument(0)
	if !l.validType(typ) {
		throwError(l.vm, "React.createElement: type is invalid -- expected a string or a function but got: "+describe(typ))
	}

	props := l.vm.NewObject()
	var key goja.Value = goja.Null()

	if cfg := call.Argument(1); !isNullish(cfg) {
		src := cfg.ToObject(l.vm)
		for _, k := range src.Keys() {
			switch k {
			case "key":
				if v := src.Get(k); !isNullish(v) {
					key = l.vm.ToValue(v.String())
				}
			case "ref", "__self", "__source":
			default:
				_ = props.Set(k, src.Get(k))
			}
		}
	}

	if len(call.Arguments) == 3 {
		_ = props.Set("children", call.Arguments[2])
	} else if len(call.Arguments) > 3 {
		children := make([]interface{}, 0, len(call.Arguments)-2)
		for _, c := range call.Arguments[2:] {
			children = append(children, c)
		}
		_ = props.Set("children", l.vm.NewArray(children...))
	}

	el := l.vm.NewObject()
	_ = el.Set(typeofKey, l.elementTag)
	_ = el.Set("type", typ)
	_ = el.Set("key", key)
	_ = el.Set("props", props)
	return el
}

func (l *Library) createContext(call goja.FunctionCall) goja.Value {
	ctx := l.vm.NewObject()
	_ = ctx.Set(typeofKey, l.contextTag)
	_ = ctx.Set("_defaultValue", call.Argument(0))

	provider := l.vm.NewObject()
	_ = provider.Set(typeofKey, l.providerTag)
	_ = provider.Set("_context", ctx)

	consumer := l.vm.NewObject()
	_ = consumer.Set(typeofKey, l.consumerTag)
	_ = consumer.Set("_context", ctx)

	_ = ctx.Set("Provider", provider)
	_ = ctx.Set("Consumer", consumer)
	return ctx
}

func (l *Library) validType(typ goja.Value) bool {
	if isString(typ) {
		return true
	}
	if _, ok := goja.AssertFunction(typ); ok {
		return true
	}
	obj, ok := typ.(*goja.Object)
	if !ok {
		return false
	}
	if obj.SameAs(l.fragment) {
		return true
	}
	tag := obj.Get(typeofKey)
	return tag != nil && (tag.SameAs(l.providerTag) || tag.SameAs(l.consumerTag))
}

func (l *Library) isElement(v goja.Value) bool {
	return hasTag(v, l.elementTag)
}

func (l *Library) isContext(v goja.Value) bool {
	return hasTag(v, l.contextTag)
}

func hasTag(v goja.Value, tag *goja.Object) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	t := obj.Get(typeofKey)
	return t != nil && t.SameAs(tag)
}

// active returns the renderer whose component is executing, or throws the
// error React raises for hooks called outside a component body.
func (l *Library) active() (*Renderer, *fiber) {
	if l.renderer == nil || l.renderer.current == nil {
		throwError(l.vm, "Invalid hook call. Hooks can only be called inside of the body of a function component.")
	}
	return l.renderer, l.renderer.current
}
