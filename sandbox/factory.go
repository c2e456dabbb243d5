package sandbox

import (
	"go.uber.org/zap"

	"github.com/isdmx/hooklab/config"
	"github.com/isdmx/hooklab/console"
	"github.com/isdmx/hooklab/react"
	"github.com/isdmx/hooklab/transform"
)

// NewFromConfig creates a Sandbox wired from the sandbox section of cfg
func NewFromConfig(logger *zap.Logger, cfg *config.Config, sink console.Sink) *Sandbox {
	sc := cfg.Sandbox

	transformer := transform.New(logger,
		transform.WithAmbientPrimitives(sc.AmbientPrimitives),
		transform.WithTarget(sc.Target),
	)

	var fetcher react.Fetcher = react.DisabledFetcher{}
	if sc.FetchEnabled {
		fetcher = react.NewHTTPFetcher(cfg.GetFetchTimeout())
	}

	logger.Info("sandbox configured",
		zap.String("entry_point", sc.EntryPoint),
		zap.Strings("ambient_primitives", sc.AmbientPrimitives),
		zap.String("target", sc.Target),
		zap.Bool("fetch_enabled", sc.FetchEnabled),
		zap.Duration("timeout", cfg.GetTimeout()))

	return New(
		WithLogger(logger),
		WithSink(sink),
		WithTransformer(transformer),
		WithEntryPoint(sc.EntryPoint),
		WithMaxRenderPasses(sc.MaxRenderPasses),
		WithFetcher(fetcher),
		WithWindowSize(sc.WindowWidth, sc.WindowHeight),
		WithTimeout(cfg.GetTimeout()),
	)
}
