package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/logger"
	"github.com/isdmx/hooklab/mcpserver"
	"github.com/isdmx/hooklab/playground"
	"github.com/isdmx/hooklab/sandbox"
)

// TestIntegrationConfigLoggerSandbox tests the integration between config, logger, and sandbox packages
func TestIntegrationConfigLoggerSandbox(t *testing.T) {
	t.Run("ConfigAndLoggerIntegration", func(t *testing.T) {
		cfg := config.Default()
		cfg.Logging.Mode = "development"
		cfg.Logging.Level = "debug"

		testLogger, err := logger.NewFromConfig(cfg)
		require.NoError(t, err)
		require.NotNil(t, testLogger)

		testLogger.Info("Integration test started")
		_ = testLogger.Sync()
	})

	t.Run("SandboxFromConfig", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sandbox.EntryPoint = "App"
		cfg.Sandbox.TimeoutSec = 5

		buf := console.NewBuffer(cfg.Sandbox.ConsoleBuffer)
		sb := sandbox.NewFromConfig(zaptest.NewLogger(t), cfg, buf)

		res, view := sb.RunAndMount(context.Background(), `
function App() {
  const [n] = useState(41);
  return <p>{n + 1}</p>;
}`)
		_, ok := res.(sandbox.Success)
		require.True(t, ok, "result: %#v", res)
		require.NotNil(t, view)

		html, err := view.HTML()
		require.NoError(t, err)
		assert.Equal(t, "<p>42</p>", html)
	})

	t.Run("TimeoutFromConfig", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sandbox.TimeoutSec = 1

		sb := sandbox.NewFromConfig(zaptest.NewLogger(t), cfg, console.Discard)

		start := time.Now()
		res := sb.Run(context.Background(), `while (true) {}`)
		assert.Less(t, time.Since(start), 10*time.Second)

		f, ok := res.(*sandbox.Failure)
		require.True(t, ok, "result: %#v", res)
		assert.Equal(t, sandbox.StageSynthesize, f.Stage)
	})
}

// TestIntegrationPlaygroundOverMCP wires the same graph cmd/server builds
func TestIntegrationPlaygroundOverMCP(t *testing.T) {
	testLogger := zaptest.NewLogger(t)
	cfg := config.Default()

	repo, err := catalog.Default()
	require.NoError(t, err)

	buf := console.NewBuffer(cfg.Sandbox.ConsoleBuffer)
	sink := console.Multi(buf, console.NewZapSink(testLogger))
	sb := sandbox.NewFromConfig(testLogger, cfg, sink)

	session, err := playground.NewSession(testLogger, repo, sb, buf)
	require.NoError(t, err)

	server, err := mcpserver.New(cfg, testLogger, session)
	require.NoError(t, err)
	require.NotNil(t, server.GetMCPServer())

	for _, ex := range repo.List() {
		_, err := session.Select(ex.ID)
		require.NoError(t, err)

		st := session.Run(context.Background())
		assert.Equal(t, playground.StatusReady, st.Status, "example %s: %+v", ex.ID, st.Failure)
		assert.False(t, st.OutOfDate)
	}
}
