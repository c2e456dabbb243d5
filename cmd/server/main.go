package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/catalog"
	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/logger"
	"github.com/isdmx/hooklab/mcpserver"
	"github.com/isdmx/hooklab/playground"
	"github.com/isdmx/hooklab/sandbox"
)

func newConsoleBuffer(cfg *config.Config) *console.Buffer {
	return console.NewBuffer(cfg.Sandbox.ConsoleBuffer)
}

// newSandbox sends console output to the panel and mirrors it into the
// application log
func newSandbox(log *zap.Logger, cfg *config.Config, buf *console.Buffer) *sandbox.Sandbox {
	sink := console.Multi(buf, console.NewZapSink(log))
	return sandbox.NewFromConfig(log, cfg, sink)
}

func newSession(log *zap.Logger, repo *catalog.Repository, sb *sandbox.Sandbox, buf *console.Buffer) (mcpserver.Playground, error) {
	return playground.NewSession(log, repo, sb, buf)
}

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Console panel
			newConsoleBuffer,

			// Execution pipeline
			newSandbox,

			// Example catalog
			catalog.Default,

			// Playground session
			newSession,

			// MCP Server
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}
