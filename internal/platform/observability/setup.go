package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Config captures observability toggles.
type Config struct {
	Enabled     bool
	MetricsPath string
}

// ShutdownFunc allows callers to tear down any observability exporters.
type ShutdownFunc func(context.Context) error

type runtimeState struct {
	cfg    Config
	logger *slog.Logger
}

var current atomic.Pointer[runtimeState]

func currentLogger() (*slog.Logger, Config) {
	st := current.Load()
	if st == nil {
		return nil, Config{}
	}
	return st.logger, st.cfg
}

// Setup installs the span logger and registers the prometheus collectors.
// Spans are only logged while a logger is installed; the returned ShutdownFunc detaches it.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	st := &runtimeState{cfg: cfg, logger: logger}
	current.Store(st)

	if cfg.Enabled {
		Registry()
	}
	if logger != nil {
		logger.InfoContext(ctx, "observability configured",
			slog.Bool("metrics", cfg.Enabled),
			slog.String("path", cfg.MetricsPath))
	}

	return func(context.Context) error {
		// 只清理自己安装的状态，避免覆盖后续 Setup
		current.CompareAndSwap(st, nil)
		return nil
	}, nil
}
