package playground

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/sandbox"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()

	logger := zaptest.NewLogger(t)
	repo, err := catalog.Default()
	require.NoError(t, err)

	buf := console.NewBuffer(100)
	sb := sandbox.New(sandbox.WithLogger(logger), sandbox.WithSink(buf))

	s, err := NewSession(logger, repo, sb, buf, opts...)
	require.NoError(t, err)
	return s
}

func targetID(t *testing.T, st State, text string) string {
	t.Helper()
	for _, tg := range st.Targets {
		if tg.Text == text {
			return tg.ID
		}
	}
	require.Failf(t, "target not found", "no target with text %q in %+v", text, st.Targets)
	return ""
}

func TestNewSessionStartsOnPlayground(t *testing.T) {
	s := newTestSession(t)

	st := s.State()
	assert.Equal(t, catalog.DefaultExample, st.Example)
	assert.True(t, st.Playground)
	assert.Equal(t, StatusIdle, st.Status)
	assert.False(t, st.Edited)
	assert.Contains(t, st.Source, "Welcome to the Playground!")
	assert.NotEmpty(t, s.Examples())
}

func TestSelectAndToggle(t *testing.T) {
	s := newTestSession(t)

	st, err := s.Select("unnecessary-effect")
	require.NoError(t, err)
	assert.Equal(t, "unnecessary-effect", st.Example)
	assert.False(t, st.ShowingSolution)
	assert.Contains(t, st.Source, "setDoubled")

	st, err = s.ToggleSolution()
	require.NoError(t, err)
	assert.True(t, st.ShowingSolution)
	assert.NotContains(t, st.Source, "setDoubled")

	// the toggle carries over to the next example
	st, err = s.Select("props-in-effect")
	require.NoError(t, err)
	assert.True(t, st.ShowingSolution)
	assert.NotContains(t, st.Source, "setFullName")

	_, err = s.Select("missing")
	assert.ErrorIs(t, err, catalog.ErrUnknownExample)
	assert.Equal(t, "props-in-effect", s.State().Example)

	_, err = s.Select(catalog.DefaultExample)
	require.NoError(t, err)
	_, err = s.ToggleSolution()
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestEditIsInertUntilRun(t *testing.T) {
	s := newTestSession(t)

	st := s.Run(context.Background())
	require.Equal(t, StatusReady, st.Status)
	firstRequest := st.Request

	st = s.Edit(`function Component() { return <p>edited</p>; }`)
	assert.True(t, st.Edited)
	assert.True(t, st.OutOfDate)
	assert.Equal(t, firstRequest, st.Request)
	assert.Contains(t, st.HTML, "Welcome to the Playground!")

	st = s.Run(context.Background())
	assert.False(t, st.OutOfDate)
	assert.Equal(t, "<p>edited</p>", st.HTML)
	assert.Greater(t, st.Request, firstRequest)
}

func TestRunDispatchAndResize(t *testing.T) {
	s := newTestSession(t)

	st := s.Run(context.Background())
	require.Equal(t, StatusReady, st.Status)
	assert.Contains(t, st.HTML, "Counter: 0")

	st, err := s.Dispatch(context.Background(), targetID(t, st, "Increment"), "click", nil)
	require.NoError(t, err)
	assert.Contains(t, st.HTML, "Counter: 1")

	_, err = s.Select("window-event")
	require.NoError(t, err)
	st = s.Run(context.Background())
	assert.Contains(t, st.HTML, "Window width: 1024px")

	st, err = s.Resize(context.Background(), 300, 200)
	require.NoError(t, err)
	assert.Contains(t, st.HTML, "Window width: 300px")

	_, err = s.Resize(context.Background(), 0, 200)
	assert.Error(t, err)
}

func TestDispatchBeforeRun(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Dispatch(context.Background(), "0", "click", nil)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestFailuresReplaceOutput(t *testing.T) {
	s := newTestSession(t)

	st := s.Run(context.Background())
	require.Equal(t, StatusReady, st.Status)

	s.Edit(`function Component() { return <div>}`)
	st = s.Run(context.Background())
	assert.Equal(t, StatusFailed, st.Status)
	require.NotNil(t, st.Failure)
	assert.Equal(t, sandbox.StageTransform, st.Failure.Stage)
	assert.Empty(t, st.HTML)

	s.Edit(`function Component() { return <p>fixed</p>; }`)
	st = s.Run(context.Background())
	assert.Equal(t, StatusReady, st.Status)
	assert.Nil(t, st.Failure)
	assert.Equal(t, "<p>fixed</p>", st.HTML)

	s.Edit(`function Component() { return undefinedVar.prop; }`)
	st = s.Run(context.Background())
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, sandbox.StageInvoke, st.Failure.Stage)
	assert.Empty(t, st.HTML, "a render failure clears the previous output")

	errors := 0
	for _, m := range s.Console() {
		if m.Kind == console.KindError {
			errors++
		}
	}
	assert.Equal(t, 2, errors)

	s.ClearConsole()
	assert.Empty(t, s.Console())
}

func TestHandlerFailureShowsInState(t *testing.T) {
	s := newTestSession(t)

	s.Edit(`
function Component() {
  const [user, setUser] = useState({ name: "Ada" });
  return <button onClick={() => setUser(null)}>{user.name}</button>;
}`)
	st := s.Run(context.Background())
	require.Equal(t, StatusReady, st.Status)

	st, err := s.Dispatch(context.Background(), targetID(t, st, "Ada"), "click", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, sandbox.StageInvoke, st.Failure.Stage)
	assert.Empty(t, st.Targets)

	_, err = s.Dispatch(context.Background(), "0", "click", nil)
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestReset(t *testing.T) {
	s := newTestSession(t)

	s.Run(context.Background())
	st := s.Reset()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Empty(t, st.HTML)
	assert.False(t, st.OutOfDate)
}

func TestCustomEditor(t *testing.T) {
	editor := NewTextEditor("")
	s := newTestSession(t, WithEditor(editor))

	assert.Contains(t, editor.Source(), "Welcome to the Playground!")
	before := editor.Revision()

	_, err := s.Select("window-event")
	require.NoError(t, err)
	assert.Equal(t, before+1, editor.Revision())

	s.Edit(editor.Source())
	assert.Equal(t, before+1, editor.Revision(), "unchanged text is not an edit")
}

func TestConcurrentUse(t *testing.T) {
	s := newTestSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Run(context.Background())
				return
			}
			_ = s.State()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, StatusReady, s.State().Status)
}
