package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/react"
	"github.com/isdmx/hooklab/sandbox"
)

func TestDefaultCatalog(t *testing.T) {
	repo, err := catalog.Default()
	require.NoError(t, err)

	examples := repo.List()
	assert.Len(t, examples, 15)
	assert.Equal(t, catalog.DefaultExample, examples[0].ID)

	pg, err := repo.Lookup(catalog.DefaultExample)
	require.NoError(t, err)
	assert.True(t, pg.Playground)
	assert.Equal(t, pg.ProblemSource, pg.SolutionSource)

	grouped := 0
	for _, g := range repo.Groups() {
		grouped += len(g.Examples)
	}
	assert.Equal(t, len(examples), grouped, "every example appears in exactly one group")
}

func TestLookupUnknown(t *testing.T) {
	repo, err := catalog.Default()
	require.NoError(t, err)

	_, err = repo.Lookup("no-such-example")
	assert.ErrorIs(t, err, catalog.ErrUnknownExample)
}

func TestExampleSource(t *testing.T) {
	ex := catalog.Example{ProblemSource: "bad", SolutionSource: "good"}
	assert.Equal(t, "bad", ex.Source(false))
	assert.Equal(t, "good", ex.Source(true))
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	const example = `
  - id: one
    title: One
    description: d
    explanation: e
    problem: p
    solution: s
`
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "NotYAML",
			doc:     "groups: [",
			wantErr: "failed to parse catalog",
		},
		{
			name:    "MissingExamples",
			doc:     "groups:\n  - id: g\n    title: G\n    examples: [one]\n",
			wantErr: "invalid catalog",
		},
		{
			name:    "BadID",
			doc:     "groups:\n  - id: g\n    title: G\n    examples: [One_]\nexamples:\n  - id: One_\n    title: t\n    description: d\n    explanation: e\n    problem: p\n    solution: s\n",
			wantErr: "example_id",
		},
		{
			name:    "MissingField",
			doc:     "groups:\n  - id: g\n    title: G\n    examples: [one]\nexamples:\n  - id: one\n    title: t\n    description: d\n    problem: p\n    solution: s\n",
			wantErr: "Explanation",
		},
		{
			name:    "UnknownGroupMember",
			doc:     "groups:\n  - id: g\n    title: G\n    examples: [two]\nexamples:" + example,
			wantErr: "unknown example",
		},
		{
			name:    "Duplicate",
			doc:     "groups:\n  - id: g\n    title: G\n    examples: [one]\nexamples:" + example + example,
			wantErr: "duplicate example id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Load([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEveryExampleRuns(t *testing.T) {
	repo, err := catalog.Default()
	require.NoError(t, err)

	for _, ex := range repo.List() {
		for _, solution := range []bool{false, true} {
			name := ex.ID + "/problem"
			if solution {
				name = ex.ID + "/solution"
			}
			t.Run(name, func(t *testing.T) {
				sb := sandbox.New(sandbox.WithLogger(zaptest.NewLogger(t)))
				res, view := sb.RunAndMount(context.Background(), ex.Source(solution))
				_, ok := res.(sandbox.Success)
				require.True(t, ok, "result: %#v", res)
				require.NotNil(t, view)
			})
		}
	}
}

func mountExample(t *testing.T, id string, solution bool) (*sandbox.View, *console.Buffer) {
	t.Helper()
	repo, err := catalog.Default()
	require.NoError(t, err)
	ex, err := repo.Lookup(id)
	require.NoError(t, err)

	buf := console.NewBuffer(100)
	sb := sandbox.New(sandbox.WithLogger(zaptest.NewLogger(t)), sandbox.WithSink(buf))
	res, view := sb.RunAndMount(context.Background(), ex.Source(solution))
	_, ok := res.(sandbox.Success)
	require.True(t, ok, "result: %#v", res)
	return view, buf
}

func button(t *testing.T, view *sandbox.View, label string) string {
	t.Helper()
	for _, b := range react.FindAll(view.Tree(), react.ByTag("button")) {
		if strings.Contains(b.TextContent(), label) {
			return b.ID
		}
	}
	require.Failf(t, "button not found", "no button labelled %q", label)
	return ""
}

func countMessages(buf *console.Buffer, text string) int {
	n := 0
	for _, m := range buf.Messages() {
		if strings.Contains(m.Text, text) {
			n++
		}
	}
	return n
}

func TestUnnecessaryEffectBehavesTheSame(t *testing.T) {
	for _, solution := range []bool{false, true} {
		view, _ := mountExample(t, "unnecessary-effect", solution)
		require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Increment"), "click", nil))
		assert.Contains(t, view.Text(), "Doubled: 2")
	}
}

func TestStatePreservation(t *testing.T) {
	tests := []struct {
		solution bool
		want     string
	}{
		{solution: false, want: ""},
		{solution: true, want: "kept"},
	}

	for _, tt := range tests {
		view, _ := mountExample(t, "state-preservation", tt.solution)

		inputs := react.FindAll(view.Tree(), react.ByTag("input"))
		require.Len(t, inputs, 1)
		require.NoError(t, view.Dispatch(context.Background(), inputs[0].ID, "change", map[string]any{"value": "kept"}))
		require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Click"), "click", nil))

		inputs = react.FindAll(view.Tree(), react.ByTag("input"))
		require.Len(t, inputs, 1)
		value, _ := inputs[0].Attr("value")
		assert.Equal(t, tt.want, value, "solution=%v", tt.solution)
	}
}

func TestPureComponents(t *testing.T) {
	view, _ := mountExample(t, "pure-components", false)
	require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Re-render"), "click", nil))
	assert.Contains(t, view.Text(), "guest #6")

	view, _ = mountExample(t, "pure-components", true)
	require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Re-render"), "click", nil))
	assert.Contains(t, view.Text(), "guest #3")
	assert.NotContains(t, view.Text(), "guest #4")
}

func TestNestedContextEffectRuns(t *testing.T) {
	tests := []struct {
		solution bool
		want     int
	}{
		{solution: false, want: 2},
		{solution: true, want: 1},
	}

	for _, tt := range tests {
		view, buf := mountExample(t, "nested-context", tt.solution)
		require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Tick"), "click", nil))
		assert.Equal(t, tt.want, countMessages(buf, "session changed"), "solution=%v", tt.solution)
	}
}

func TestCacheCalculation(t *testing.T) {
	tests := []struct {
		solution bool
		want     int
	}{
		{solution: false, want: 2},
		{solution: true, want: 1},
	}

	for _, tt := range tests {
		view, buf := mountExample(t, "cache-calculation", tt.solution)
		assert.Contains(t, view.Text(), "168 primes up to 1000")
		require.NoError(t, view.Dispatch(context.Background(), button(t, view, "Toggle theme"), "click", nil))
		assert.Equal(t, tt.want, countMessages(buf, "counting primes"), "solution=%v", tt.solution)
	}
}

func TestWindowEventFollowsResize(t *testing.T) {
	for _, solution := range []bool{false, true} {
		view, _ := mountExample(t, "window-event", solution)
		assert.Contains(t, view.Text(), "Window width: 1024px")
		require.NoError(t, view.Resize(context.Background(), 640, 480))
		assert.Contains(t, view.Text(), "Window width: 640px")
	}
}

func TestFetchWithoutNetworkShowsError(t *testing.T) {
	for _, solution := range []bool{false, true} {
		view, _ := mountExample(t, "fetch-in-effect", solution)
		assert.Contains(t, view.Text(), "Error: Failed to fetch")
	}
}
