package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// AmbientObject is the name of the single parameter the prelude destructures from.
const AmbientObject = "React"

// DefaultSourceFile names the snippet in diagnostics
const DefaultSourceFile = "component.jsx"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
}

// Diagnostic is one message reported by the parser
type Diagnostic struct {
	Text     string `json:"text"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	LineText string `json:"line_text,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return d.Text
	}
	return fmt.Sprintf("%s (%d:%d)", d.Text, d.Line, d.Column)
}

// SyntaxError reports source text the parser rejected. Diagnostics keep the
// parser's wording untouched; Line and Column refer to the user's text.
type SyntaxError struct {
	Diagnostics []Diagnostic
}

func (e *SyntaxError) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

// Transformer lowers JSX snippets into plain JavaScript the engine can run
type Transformer struct {
	logger     *zap.Logger
	primitives []string
	target     api.Target
	sourceFile string
}

// Option configures a Transformer
type Option func(*Transformer)

// WithAmbientPrimitives sets the names the prelude destructures from React
func WithAmbientPrimitives(names []string) Option {
	return func(t *Transformer) {
		t.primitives = append([]string(nil), names...)
	}
}

// WithTarget sets the output language level; unknown names keep the default
func WithTarget(target string) Option {
	return func(t *Transformer) {
		if tgt, ok := targets[target]; ok {
			t.target = tgt
		}
	}
}

// WithSourceFile sets the file name used in diagnostics
func WithSourceFile(name string) Option {
	return func(t *Transformer) {
		t.sourceFile = name
	}
}

// New creates a Transformer with the default hook prelude
func New(logger *zap.Logger, opts ...Option) *Transformer {
	t := &Transformer{
		logger:     logger,
		primitives: []string{"useState", "useEffect", "useCallback", "useMemo", "useContext"},
		target:     api.ES2017,
		sourceFile: DefaultSourceFile,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Prelude returns the declaration block placed ahead of every snippet
func (t *Transformer) Prelude() string {
	if len(t.primitives) == 0 {
		return ""
	}
	return fmt.Sprintf("const {%s} = %s;", strings.Join(t.primitives, ", "), AmbientObject)
}

// Output is transformed code with a source map pointing back at the input
type Output struct {
	Code      string
	SourceMap []byte
}

// Transform rewrites JSX in source into React.createElement calls and
// prepends the prelude. It never evaluates the code.
func (t *Transformer) Transform(source string) (string, error) {
	out, err := t.transform(source, api.SourceMapNone)
	return out.Code, err
}

// TransformWithMap is Transform that also returns an external source map,
// so positions in the output can be reported against source.
func (t *Transformer) TransformWithMap(source string) (Output, error) {
	return t.transform(source, api.SourceMapExternal)
}

func (t *Transformer) transform(source string, sourceMap api.SourceMap) (Output, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:      api.LoaderJSX,
		JSX:         api.JSXTransform,
		JSXFactory:  AmbientObject + ".createElement",
		JSXFragment: AmbientObject + ".Fragment",
		Target:      t.target,
		Sourcefile:  t.sourceFile,
		Sourcemap:   sourceMap,
		Banner:      t.Prelude(),
		Charset:     api.CharsetUTF8,
		LogLevel:    api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		err := &SyntaxError{Diagnostics: toDiagnostics(result.Errors)}
		t.logger.Debug("transform rejected source",
			zap.Int("errors", len(result.Errors)),
			zap.String("first", err.Diagnostics[0].String()))
		return Output{}, err
	}

	for _, w := range result.Warnings {
		t.logger.Debug("transform warning", zap.String("text", w.Text))
	}

	return Output{Code: string(result.Code), SourceMap: result.Map}, nil
}

func toDiagnostics(msgs []api.Message) []Diagnostic {
	out := make([]Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		d := Diagnostic{Text: m.Text}
		if m.Location != nil {
			d.Line = m.Location.Line
			// esbuild columns are zero-based
			d.Column = m.Location.Column + 1
			d.LineText = m.Location.LineText
		}
		out = append(out, d)
	}
	return out
}
