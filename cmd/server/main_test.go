package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/playground"
)

func TestConsoleMirroredIntoLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	cfg := config.Default()

	buf := newConsoleBuffer(cfg)
	sb := newSandbox(log, cfg, buf)
	sb.Run(context.Background(), `function Component() { return <div>}`)

	require.Len(t, buf.Messages(), 1)

	mirrored := logs.FilterLoggerName("console").All()
	require.Len(t, mirrored, 1)
	assert.Equal(t, buf.Messages()[0].Text, mirrored[0].Message)
	assert.Empty(t, logs.FilterLoggerName("console.console").All())
}

func TestNewSession(t *testing.T) {
	log := zap.NewNop()
	cfg := config.Default()

	repo, err := catalog.Default()
	require.NoError(t, err)

	buf := newConsoleBuffer(cfg)
	session, err := newSession(log, repo, newSandbox(log, cfg, buf), buf)
	require.NoError(t, err)

	st := session.Run(context.Background())
	assert.Equal(t, playground.StatusReady, st.Status)
}
