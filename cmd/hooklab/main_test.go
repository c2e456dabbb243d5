package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdmx/hooklab/sandbox"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "playground")
	assert.Contains(t, out, "unnecessary-effect")
}

func TestShowCommand(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "show", "unnecessary-effect")
	require.NoError(t, err)
	assert.Contains(t, out, "setDoubled")

	out, err = executeCommand(newRootCmd(), "show", "unnecessary-effect", "--solution")
	require.NoError(t, err)
	assert.NotContains(t, out, "setDoubled")

	_, err = executeCommand(newRootCmd(), "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hooklab list")
}

func TestRunExampleWithClicks(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "run", "--example", "playground", "--click", "Increment", "--click", "Increment")
	require.NoError(t, err)
	assert.Contains(t, out, "Counter: 2")
}

func TestRunFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snippet.jsx")
	require.NoError(t, os.WriteFile(path, []byte(`
function Component() {
  console.log("rendered");
  return <p>from file</p>;
}`), 0o644))

	out, err := executeCommand(newRootCmd(), "run", path, "--json")
	require.NoError(t, err)

	var res runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "<p>from file</p>", res.HTML)
	assert.Nil(t, res.Failure)
	require.NotEmpty(t, res.Console)
	assert.Equal(t, "rendered", res.Console[0].Text)
}

func TestRunFailureReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsx")
	require.NoError(t, os.WriteFile(path, []byte(`function Component() { return <div>}`), 0o644))

	out, err := executeCommand(newRootCmd(), "run", path)
	require.Error(t, err)

	var f *sandbox.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, sandbox.StageTransform, f.Stage)
	assert.Contains(t, out, "[error]")
}

func TestRunArgumentValidation(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "run")
	assert.Error(t, err)

	_, err = executeCommand(newRootCmd(), "run", "file.jsx", "--example", "playground")
	assert.Error(t, err)

	_, err = executeCommand(newRootCmd(), "run", "--example", "playground", "--click", "Nope")
	assert.Error(t, err)
}

func TestRunUsesConfiguration(t *testing.T) {
	t.Setenv("HOOKLAB_SANDBOX_ENTRY_POINT", "App")

	path := filepath.Join(t.TempDir(), "app.jsx")
	require.NoError(t, os.WriteFile(path, []byte(`function App() { return <p>configured</p>; }`), 0o644))

	out, err := executeCommand(newRootCmd(), "run", path, "--json")
	require.NoError(t, err)

	var res runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "<p>configured</p>", res.HTML)

	t.Setenv("HOOKLAB_SANDBOX_ENTRY_POINT", "not valid")
	_, err = executeCommand(newRootCmd(), "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
