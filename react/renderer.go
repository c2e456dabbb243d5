package react

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Renderer errors
var (
	//nolint:staticcheck // wording matches what React users search for
	ErrTooManyRenders = errors.New("Too many re-renders. React limits the number of renders to prevent an infinite loop.")
	ErrUnmounted      = errors.New("renderer has been unmounted")
	ErrNodeNotFound   = errors.New("node not found")
)

// DefaultMaxPasses bounds the render/effect cycles a single update may trigger.
const DefaultMaxPasses = 50

type fiber struct {
	path    string
	typ     goja.Value
	name    string
	hooks   []*hook
	cursor  int
	mounted bool
	alive   bool
	removed bool

	// completed orders fibers by when their subtree finished rendering
	completed int
}

type scheduledEffect struct {
	fiber *fiber
	hook  *hook
}

type providerFrame struct {
	context *goja.Object
	value   goja.Value
}

// Renderer mounts one root component and keeps its hook state across
// re-renders triggered by events, effects and window changes. It is not
// safe for concurrent use.
type Renderer struct {
	lib       *Library
	vm        *goja.Runtime
	logger    *zap.Logger
	root      *goja.Object
	maxPasses int
	onWarning func(string)

	fibers    map[string]*fiber
	current   *fiber
	effects   []scheduledEffect
	providers []providerFrame
	dirty     bool
	tree      []*Node
	unmounted bool
	completes int
}

// RendererOption configures a Renderer
type RendererOption func(*Renderer)

// WithMaxPasses bounds consecutive render passes per update
func WithMaxPasses(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.maxPasses = n
		}
	}
}

// WithLogger sets the renderer's logger
func WithLogger(logger *zap.Logger) RendererOption {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithWarningHandler receives non-fatal problems such as an effect
// returning something other than a cleanup function.
func WithWarningHandler(fn func(string)) RendererOption {
	return func(r *Renderer) {
		r.onWarning = fn
	}
}

// NewRenderer prepares component for mounting. The renderer becomes the
// target of hook calls made through lib.
func NewRenderer(lib *Library, component goja.Value, opts ...RendererOption) *Renderer {
	r := &Renderer{
		lib:       lib,
		vm:        lib.vm,
		logger:    zap.NewNop(),
		maxPasses: DefaultMaxPasses,
		onWarning: func(string) {},
		fibers:    make(map[string]*fiber),
	}

	for _, opt := range opts {
		opt(r)
	}

	root := lib.vm.NewObject()
	_ = root.Set(typeofKey, lib.elementTag)
	_ = root.Set("type", component)
	_ = root.Set("key", goja.Null())
	_ = root.Set("props", lib.vm.NewObject())
	r.root = root

	lib.renderer = r
	return r
}

// Mount renders the root component and runs its effects until the tree settles.
func (r *Renderer) Mount() error {
	if r.unmounted {
		return ErrUnmounted
	}
	r.logger.Debug("mounting component")
	return r.flush()
}

// Act runs fn, then re-renders if fn updated any state.
func (r *Renderer) Act(fn func() error) error {
	if r.unmounted {
		return ErrUnmounted
	}
	if err := fn(); err != nil {
		return err
	}
	if r.dirty {
		return r.flush()
	}
	return nil
}

// Dispatch delivers event to the node with the given id and bubbles it up
// through its ancestors. payload fields are copied onto the event object;
// "value" and "checked" go to event.target.
func (r *Renderer) Dispatch(id, event string, payload map[string]any) error {
	return r.Act(func() error {
		chain := findChain(r.tree, id)
		if chain == nil {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}

		name := HandlerName(event)
		target := chain[len(chain)-1]
		evt, stopped := r.newEvent(name, target, payload)

		handled := false
		for i := len(chain) - 1; i >= 0; i-- {
			handler, ok := chain[i].handlers[name]
			if !ok {
				continue
			}
			handled = true
			if _, err := call(handler, evt); err != nil {
				return err
			}
			if *stopped {
				break
			}
		}

		if !handled {
			r.logger.Debug("event had no handler", zap.String("node", id), zap.String("event", name))
		}
		return nil
	})
}

// Unmount runs every pending cleanup and detaches the renderer. Later
// state updates from stale closures are ignored.
func (r *Renderer) Unmount() error {
	if r.unmounted {
		return nil
	}

	var firstErr error
	for _, path := range r.sortedPaths() {
		if err := r.unmountFiber(r.fibers[path]); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	r.fibers = make(map[string]*fiber)
	r.effects = nil
	r.tree = nil
	r.unmounted = true
	if r.lib.renderer == r {
		r.lib.renderer = nil
	}
	return firstErr
}

// Tree returns the host nodes produced by the last successful render
func (r *Renderer) Tree() []*Node {
	return r.tree
}

// Mounted reports whether the renderer still owns a tree
func (r *Renderer) Mounted() bool {
	return !r.unmounted
}

func (r *Renderer) update(f *fiber, h *hook, next goja.Value) {
	if r.unmounted || f.removed {
		return
	}
	if h.value != nil && next.SameAs(h.value) {
		return
	}
	h.value = next
	r.dirty = true
}

func (r *Renderer) schedule(f *fiber, h *hook) {
	r.effects = append(r.effects, scheduledEffect{fiber: f, hook: h})
}

func (r *Renderer) flush() error {
	for pass := 0; ; pass++ {
		if pass >= r.maxPasses {
			return ErrTooManyRenders
		}
		r.dirty = false

		if err := r.renderPass(); err != nil {
			return err
		}
		if err := r.runEffects(); err != nil {
			return err
		}

		if !r.dirty {
			r.logger.Debug("render settled", zap.Int("passes", pass+1))
			return nil
		}
	}
}

func (r *Renderer) renderPass() error {
	for _, f := range r.fibers {
		f.alive = false
	}
	r.effects = r.effects[:0]
	r.providers = nil
	r.completes = 0

	tree, err := r.renderValue(r.root, "0")
	r.current = nil
	if err != nil {
		return err
	}
	r.tree = tree

	for _, path := range r.sortedPaths() {
		f := r.fibers[path]
		if f.alive {
			continue
		}
		delete(r.fibers, path)
		if err := r.unmountFiber(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) runEffects() error {
	effects := r.effects
	r.effects = nil

	// children before parents, siblings in order
	sort.SliceStable(effects, func(i, j int) bool {
		return effects[i].fiber.completed < effects[j].fiber.completed
	})

	for _, e := range effects {
		if e.fiber.removed || e.hook.cleanup == nil {
			continue
		}
		cleanup := e.hook.cleanup
		e.hook.cleanup = nil
		if _, err := call(cleanup); err != nil {
			return err
		}
	}

	for _, e := range effects {
		if e.fiber.removed {
			continue
		}
		out, err := call(e.hook.effect)
		if err != nil {
			return err
		}
		if fn, ok := goja.AssertFunction(out); ok {
			e.hook.cleanup = fn
		} else if !goja.IsUndefined(out) {
			r.onWarning("An effect function in " + e.fiber.name + " must not return anything besides a function, which is used for clean-up.")
		}
	}
	return nil
}

func (r *Renderer) unmountFiber(f *fiber) error {
	f.removed = true
	var firstErr error
	for _, h := range f.hooks {
		if h.cleanup == nil {
			continue
		}
		cleanup := h.cleanup
		h.cleanup = nil
		if _, err := call(cleanup); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Renderer) sortedPaths() []string {
	paths := make([]string, 0, len(r.fibers))
	for p := range r.fibers {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (r *Renderer) contextValue(ctx *goja.Object) goja.Value {
	for i := len(r.providers) - 1; i >= 0; i-- {
		if r.providers[i].context.SameAs(ctx) {
			return r.providers[i].value
		}
	}
	return ctx.Get("_defaultValue")
}

func (r *Renderer) renderValue(v goja.Value, path string) ([]*Node, error) {
	if isNullish(v) {
		return nil, nil
	}

	obj, isObj := v.(*goja.Object)
	if !isObj {
		switch x := v.Export().(type) {
		case bool:
			return nil, nil
		case string:
			return []*Node{{ID: path, Text: x}}, nil
		default:
			return []*Node{{ID: path, Text: v.String()}}, nil
		}
	}

	if isArray(obj) {
		var nodes []*Node
		for i, item := range arrayValues(obj) {
			childNodes, err := r.renderValue(item, path+"."+r.segment(item, i))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, childNodes...)
		}
		return nodes, nil
	}

	if r.lib.isElement(obj) {
		return r.renderElement(obj, path)
	}

	if _, ok := goja.AssertFunction(obj); ok {
		r.onWarning("Functions are not valid as a React child.")
		return nil, nil
	}

	return nil, fmt.Errorf("Objects are not valid as a React child (found: object with keys {%s}). "+
		"If you meant to render a collection of children, use an array instead.", strings.Join(obj.Keys(), ", "))
}

func (r *Renderer) segment(item goja.Value, index int) string {
	if r.lib.isElement(item) {
		if key := item.(*goja.Object).Get("key"); !isNullish(key) {
			return "k:" + key.String()
		}
	}
	return fmt.Sprintf("%d", index)
}

func (r *Renderer) renderElement(el *goja.Object, path string) ([]*Node, error) {
	typ := el.Get("type")
	props := el.Get("props").ToObject(r.vm)
	children := props.Get("children")

	if isString(typ) {
		return r.renderHost(typ.String(), props, children, path)
	}

	if fn, ok := goja.AssertFunction(typ); ok {
		return r.renderComponent(fn, typ, props, path)
	}

	typeObj := typ.ToObject(r.vm)
	if typeObj.SameAs(r.lib.fragment) {
		return r.renderValue(children, path+".0")
	}

	ctx, _ := typeObj.Get("_context").(*goja.Object)
	switch {
	case hasTag(typeObj, r.lib.providerTag) && ctx != nil:
		r.providers = append(r.providers, providerFrame{context: ctx, value: props.Get("value")})
		nodes, err := r.renderValue(children, path+".0")
		r.providers = r.providers[:len(r.providers)-1]
		return nodes, err

	case hasTag(typeObj, r.lib.consumerTag) && ctx != nil:
		fn, ok := goja.AssertFunction(children)
		if !ok {
			return nil, errors.New("A context consumer was rendered with multiple children, or a child that isn't a function.")
		}
		out, err := call(fn, r.contextValue(ctx))
		if err != nil {
			return nil, err
		}
		return r.renderValue(out, path+".0")
	}

	return nil, fmt.Errorf("Element type is invalid: expected a string or a function but got: %s", describe(typ))
}

func (r *Renderer) renderComponent(fn goja.Callable, typ goja.Value, props *goja.Object, path string) ([]*Node, error) {
	f := r.fibers[path]
	if f != nil && !f.typ.SameAs(typ) {
		delete(r.fibers, path)
		if err := r.unmountFiber(f); err != nil {
			return nil, err
		}
		f = nil
	}
	if f == nil {
		f = &fiber{path: path, typ: typ, name: componentName(r.vm, typ)}
		r.fibers[path] = f
	}
	f.alive = true

	prev := r.current
	r.current = f
	f.cursor = 0
	out, err := call(fn, props)
	r.current = prev
	if err != nil {
		return nil, err
	}

	if f.mounted && f.cursor < len(f.hooks) {
		return nil, errors.New("Rendered fewer hooks than expected. This may be caused by an accidental early return statement.")
	}
	f.mounted = true

	nodes, err := r.renderValue(out, path+".0")
	if err != nil {
		return nil, err
	}
	r.completes++
	f.completed = r.completes
	return nodes, nil
}

func (r *Renderer) renderHost(tag string, props *goja.Object, children goja.Value, path string) ([]*Node, error) {
	node := &Node{ID: path, Tag: tag, handlers: make(map[string]goja.Callable)}

	for _, k := range props.Keys() {
		if k == "children" {
			continue
		}
		v := props.Get(k)
		if isHandlerName(k) {
			if fn, ok := goja.AssertFunction(v); ok {
				node.handlers[k] = fn
			}
			continue
		}
		if attr, ok := toAttribute(k, v); ok {
			node.Attrs = append(node.Attrs, attr)
		}
	}

	kids, err := r.renderValue(children, path+".0")
	if err != nil {
		return nil, err
	}
	node.Children = kids
	return []*Node{node}, nil
}

func (r *Renderer) newEvent(name string, target *Node, payload map[string]any) (*goja.Object, *bool) {
	stopped := false
	evt := r.vm.NewObject()

	targetObj := r.vm.NewObject()
	checked := false
	for _, a := range target.Attrs {
		switch a.Name {
		case "value", "name", "id", "type":
			_ = targetObj.Set(a.Name, a.Value)
		case "checked":
			checked = true
		}
	}
	if target.Tag == "input" {
		if _, given := payload["checked"]; !given && (name == "onClick" || name == "onChange") {
			switch inputType, _ := target.Attr("type"); inputType {
			case "checkbox":
				checked = !checked
			case "radio":
				checked = true
			}
		}
		_ = targetObj.Set("checked", checked)
	} else if checked {
		_ = targetObj.Set("checked", true)
	}
	_ = targetObj.Set("tagName", strings.ToUpper(target.Tag))

	for k, v := range payload {
		switch k {
		case "value", "checked":
			_ = targetObj.Set(k, v)
		default:
			_ = evt.Set(k, v)
		}
	}

	prevented := false
	_ = evt.Set("type", strings.ToLower(strings.TrimPrefix(name, "on")))
	_ = evt.Set("target", targetObj)
	_ = evt.Set("currentTarget", targetObj)
	_ = evt.Set("preventDefault", func(goja.FunctionCall) goja.Value {
		prevented = true
		_ = evt.Set("defaultPrevented", true)
		return goja.Undefined()
	})
	_ = evt.Set("stopPropagation", func(goja.FunctionCall) goja.Value {
		stopped = true
		return goja.Undefined()
	})
	_ = evt.Set("defaultPrevented", prevented)

	return evt, &stopped
}

func componentName(vm *goja.Runtime, typ goja.Value) string {
	if name := typ.ToObject(vm).Get("name"); !isNullish(name) && name.String() != "" {
		return name.String()
	}
	return "Anonymous"
}

// HandlerName normalises "click" and "onClick" to the prop name "onClick".
func HandlerName(event string) string {
	if isHandlerName(event) {
		return event
	}
	if event == "" {
		return ""
	}
	return "on" + strings.ToUpper(event[:1]) + event[1:]
}

func isHandlerName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "on") && name[2] >= 'A' && name[2] <= 'Z'
}
