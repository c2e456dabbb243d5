package react

import (
	"errors"
	"strconv"

	"github.com/dop251/goja"
)

// throwError raises a JS Error with msg from inside a native function.
func throwError(vm *goja.Runtime, msg string) {
	panic(newError(vm, msg))
}

func newError(vm *goja.Runtime, msg string) *goja.Object {
	ctor := vm.Get("Error")
	obj, err := vm.New(ctor, vm.ToValue(msg))
	if err != nil {
		return vm.NewGoError(errors.New(msg))
	}
	return obj
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func isString(v goja.Value) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*goja.Object); ok {
		return false
	}
	_, ok := v.Export().(string)
	return ok
}

func isArray(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

func arrayValues(obj *goja.Object) []goja.Value {
	n := int(obj.Get("length").ToInteger())
	out := make([]goja.Value, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, obj.Get(strconv.Itoa(i)))
	}
	return out
}

func describe(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}
	if obj, ok := v.(*goja.Object); ok {
		if isArray(obj) {
			return "array"
		}
		return "object"
	}
	return v.String()
}

// ErrorMessage extracts the user-facing message from an error returned by
// the runtime: the thrown value's string form for JS exceptions, the
// interrupt reason for interrupts, err.Error() otherwise.
func ErrorMessage(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if v := exc.Value(); v != nil {
			return v.String()
		}
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if v, ok := interrupted.Value().(error); ok {
			return "execution interrupted: " + v.Error()
		}
		return "execution interrupted"
	}

	var compileErr *goja.CompilerSyntaxError
	if errors.As(err, &compileErr) {
		return compileErr.Error()
	}

	return err.Error()
}

// call invokes fn and converts a thrown JS value into a Go error.
func call(fn goja.Callable, args ...goja.Value) (goja.Value, error) {
	return fn(goja.Undefined(), args...)
}

// mustCall is call for native functions invoked from JS: exceptions are
// rethrown into the calling script.
func mustCall(fn goja.Callable, args ...goja.Value) goja.Value {
	v, err := call(fn, args...)
	if err != nil {
		var exc *goja.Exception
		if errors.As(err, &exc) {
			panic(exc)
		}
		panic(err)
	}
	return v
}

func depsChanged(prev, next []goja.Value, prevOK, nextOK bool) bool {
	if !prevOK || !nextOK {
		return true
	}
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if !prev[i].SameAs(next[i]) {
			return true
		}
	}
	return false
}

// readDeps returns the dependency list argument; ok is false when it was omitted.
func readDeps(v goja.Value) ([]goja.Value, bool) {
	if isNullish(v) {
		return nil, false
	}
	obj, ok := v.(*goja.Object)
	if !ok || !isArray(obj) {
		return nil, false
	}
	return arrayValues(obj), true
}
