package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// New creates a Logger writing JSON to Dir/Filename and coloured text to stdout.
func New(cfg Config) (*Logger, error) {
	return NewWithConsole(cfg, os.Stdout)
}

// NewWithConsole is New with a custom console writer.
func NewWithConsole(cfg Config, console io.Writer) (*Logger, error) {
	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}
	if cfg.Filename == "" {
		cfg.Filename = "server.log"
	}
	if console == nil {
		console = io.Discard
	}
	logger, err := newLogger(cfg, console)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return logger, nil
}

// Nop returns a logger that discards everything. Handy for tests.
// It opens no file and starts no rotation goroutine.
func Nop() *Logger {
	return &Logger{
		level:      slog.LevelError,
		jsonLogger: slog.New(slog.DiscardHandler),
		textLogger: slog.New(slog.DiscardHandler),
		stopCh:     make(chan struct{}),
	}
}
