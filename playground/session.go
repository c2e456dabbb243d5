package playground

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/react"
	"github.com/isdmx/hooklab/sandbox"
)

// Session errors
var (
	ErrNoSolution = errors.New("the playground example has no solution to toggle")
	ErrNotMounted = errors.New("nothing is mounted; run the code first")
)

// Status describes what the preview pane shows
type Status string

// Preview statuses
const (
	StatusIdle   Status = "idle"
	StatusReady  Status = "ready"
	StatusFailed Status = "failed"
)

// Target is an element the user can interact with
type Target struct {
	ID       string   `json:"id"`
	Tag      string   `json:"tag"`
	Text     string   `json:"text,omitempty"`
	Handlers []string `json:"handlers"`
}

// State is a snapshot of everything the session displays
type State struct {
	Example         string           `json:"example"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Explanation     string           `json:"explanation"`
	Playground      bool             `json:"playground"`
	ShowingSolution bool             `json:"showing_solution"`
	Source          string           `json:"source"`
	Edited          bool             `json:"edited"`
	OutOfDate       bool             `json:"out_of_date"`
	Status          Status           `json:"status"`
	Request         uint64           `json:"request,omitempty"`
	Failure         *sandbox.Failure `json:"failure,omitempty"`
	HTML            string           `json:"html,omitempty"`
	Targets         []Target         `json:"targets,omitempty"`
}

// Session is one user's playground
type Session struct {
	mu sync.Mutex

	logger  *zap.Logger
	repo    *catalog.Repository
	sandbox *sandbox.Sandbox
	console *console.Buffer
	editor  Editor

	example  catalog.Example
	solution bool
	ranWith  string
	result   sandbox.Result
	view     *sandbox.View
}

// Option configures a Session
type Option func(*Session)

// WithEditor replaces the default in-memory editor
func WithEditor(e Editor) Option {
	return func(s *Session) {
		s.editor = e
	}
}

// NewSession creates a session showing the default example. buf must be
// the console sink sb was created with.
func NewSession(logger *zap.Logger, repo *catalog.Repository, sb *sandbox.Sandbox, buf *console.Buffer, opts ...Option) (*Session, error) {
	s := &Session{
		logger:  logger.Named("session"),
		repo:    repo,
		sandbox: sb,
		console: buf,
		editor:  NewTextEditor(""),
	}

	for _, opt := range opts {
		opt(s)
	}

	sb.OnInvokeFailure(s.onInvokeFailure)

	if _, err := s.Select(catalog.DefaultExample); err != nil {
		return nil, fmt.Errorf("failed to select default example: %w", err)
	}
	return s, nil
}

// Examples returns the catalog groups in display order
func (s *Session) Examples() []catalog.Group {
	return s.repo.Groups()
}

// Select switches to example id and loads its current variant into the
// editor. The preview keeps showing the last run until the next Run.
func (s *Session) Select(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, err := s.repo.Lookup(id)
	if err != nil {
		return State{}, err
	}

	s.example = ex
	if ex.Playground {
		s.solution = false
	}
	s.editor.OnChange(ex.Source(s.solution))
	s.logger.Debug("example selected", zap.String("example", id), zap.Bool("solution", s.solution))
	return s.state(), nil
}

// ToggleSolution switches the editor between the problem and the solution
func (s *Session) ToggleSolution() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.example.Playground {
		return s.state(), ErrNoSolution
	}

	s.solution = !s.solution
	s.editor.OnChange(s.example.Source(s.solution))
	return s.state(), nil
}

// Edit replaces the editor text. Nothing runs until Run is called.
func (s *Session) Edit(text string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor.OnChange(text)
	return s.state()
}

// Run executes the current editor text and mounts it when it compiles
func (s *Session) Run(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.editor.Source()
	res, view := s.sandbox.RunAndMount(ctx, source)
	s.result = res
	s.view = view
	s.ranWith = source

	if f, ok := res.(*sandbox.Failure); ok {
		s.logger.Info("run failed", zap.String("stage", string(f.Stage)), zap.String("message", f.Message))
	}
	return s.state()
}

// Dispatch sends an event to the rendered node with the given id. A
// render-time error is shown as the failure in the returned state.
func (s *Session) Dispatch(ctx context.Context, id, event string, payload map[string]any) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.drive(func(v *sandbox.View) error {
		return v.Dispatch(ctx, id, event, payload)
	})
}

// Resize changes the simulated window size
func (s *Session) Resize(ctx context.Context, width, height int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if width <= 0 || height <= 0 {
		return s.state(), fmt.Errorf("invalid window size %dx%d", width, height)
	}

	return s.drive(func(v *sandbox.View) error {
		return v.Resize(ctx, width, height)
	})
}

// State returns the current snapshot
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Console returns the console panel messages
func (s *Session) Console() []console.Message {
	return s.console.Messages()
}

// ClearConsole empties the console panel
func (s *Session) ClearConsole() {
	s.console.Clear()
}

// Reset discards the mounted output and the last result
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sandbox.Reset()
	s.result = nil
	s.view = nil
	s.ranWith = ""
	return s.state()
}

func (s *Session) drive(fn func(*sandbox.View) error) (State, error) {
	if s.view == nil {
		return s.state(), ErrNotMounted
	}

	err := fn(s.view)
	var f *sandbox.Failure
	if errors.As(err, &f) {
		// onInvokeFailure already recorded it
		return s.state(), nil
	}
	if errors.Is(err, sandbox.ErrStaleEntryPoint) {
		s.view = nil
	}
	return s.state(), err
}

// onInvokeFailure runs inside sandbox calls made with s.mu held.
func (s *Session) onInvokeFailure(f *sandbox.Failure) {
	s.result = f
	s.view = nil
	s.logger.Info("render failed", zap.Uint64("request", f.Request), zap.String("message", f.Message))
}

func (s *Session) state() State {
	source := s.editor.Source()
	st := State{
		Example:         s.example.ID,
		Title:           s.example.Title,
		Description:     s.example.Description,
		Explanation:     s.example.Explanation,
		Playground:      s.example.Playground,
		ShowingSolution: s.solution,
		Source:          source,
		Edited:          source != s.example.Source(s.solution),
		Status:          StatusIdle,
		OutOfDate:       s.result != nil && source != s.ranWith,
	}

	switch res := s.result.(type) {
	case *sandbox.Failure:
		st.Status = StatusFailed
		st.Failure = res
		st.Request = res.Request
	case sandbox.Success:
		st.Status = StatusReady
		st.Request = res.Entry.Request().ID
	}

	if s.view != nil {
		html, err := s.view.HTML()
		if err != nil {
			s.logger.Warn("failed to render html", zap.Error(err))
		}
		st.HTML = html
		st.Targets = targets(s.view.Tree())
	}
	return st
}

func targets(tree []*react.Node) []Target {
	nodes := react.FindAll(tree, func(n *react.Node) bool { return len(n.Handlers()) > 0 })
	out := make([]Target, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Target{
			ID:       n.ID,
			Tag:      n.Tag,
			Text:     n.TextContent(),
			Handlers: n.Handlers(),
		})
	}
	return out
}
