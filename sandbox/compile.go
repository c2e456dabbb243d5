package sandbox

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"
	"github.com/go-sourcemap/sourcemap"

	"github.com/isdmx/hooklab/react"
)

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Compile turns transformed text into a factory function. The factory takes
// one argument per binding name and, when called, evaluates text as a
// function body with those bindings in scope. It returns a zero-argument
// unit that yields the value of entry, or undefined when text never
// declared it.
//
// This is the only place the sandbox turns text into behaviour.
func Compile(vm *goja.Runtime, text, entry string, bindings []string) (goja.Callable, error) {
	if !identifier.MatchString(entry) {
		return nil, fmt.Errorf("invalid entry point name %q", entry)
	}
	for _, b := range bindings {
		if !identifier.MatchString(b) {
			return nil, fmt.Errorf("invalid binding name %q", b)
		}
	}

	// text starts on the wrapper's first line, so engine line numbers are
	// line numbers of the transformed output
	src := fmt.Sprintf("(function (%s) {%s\nreturn function () { return typeof %s === \"undefined\" ? undefined : %s; };\n})",
		strings.Join(bindings, ", "), text, entry, entry)

	prg, err := goja.Compile("component.js", src, false)
	if err != nil {
		return nil, err
	}

	v, err := vm.RunProgram(prg)
	if err != nil {
		return nil, err
	}

	factory, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("compiled unit is not a function")
	}
	return factory, nil
}

// compileMessage describes an error from Compile or the factory call. Parse
// errors are positioned in the original snippet through sourceMap.
func compileMessage(err error, sourceMap []byte) string {
	var syntaxErr *goja.CompilerSyntaxError
	if !errors.As(err, &syntaxErr) {
		return react.ErrorMessage(err)
	}

	msg := "SyntaxError: " + syntaxErr.Message
	if syntaxErr.File == nil {
		return msg
	}

	pos := syntaxErr.File.Position(syntaxErr.Offset)
	if line, column, ok := originalPosition(sourceMap, pos.Line, pos.Column); ok {
		return fmt.Sprintf("%s (%d:%d)", msg, line, column)
	}
	return msg
}

// originalPosition maps a 1-based line and column of transformed output to
// the 1-based position in the source it came from.
func originalPosition(sourceMap []byte, line, column int) (int, int, bool) {
	if len(sourceMap) == 0 {
		return 0, 0, false
	}

	consumer, err := sourcemap.Parse("", sourceMap)
	if err != nil {
		return 0, 0, false
	}

	_, _, srcLine, srcColumn, ok := consumer.Source(line, column-1)
	if !ok {
		return 0, 0, false
	}
	return srcLine, srcColumn + 1, true
}
