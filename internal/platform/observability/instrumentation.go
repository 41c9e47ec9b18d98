package observability

import (
	"context"
	"log/slog"
	"time"
)

type sessionKey struct{}

// WithSession 在上下文中标记会话 ID，之后的 span 与指标日志都会带上 session_id
func WithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session id stored by WithSession.
func SessionFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan 记录一次操作的开始与结束，返回的函数在操作结束时调用
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, _ := currentLogger()
	if logger == nil {
		return ctx, func(error) {}
	}

	base := baseAttrs(ctx, slog.String("component", component), slog.String("operation", operation))
	started := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span start", base...)

	return ctx, func(err error) {
		attrs := append(base, slog.Duration("duration", time.Since(started)))
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.LogAttrs(ctx, level, "span end", attrs...)
	}
}

// RecordMetric 以 debug 日志输出一个指标点，未启用时丢弃
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, _ := currentLogger()
	if logger == nil {
		return
	}

	attrs := baseAttrs(ctx, slog.String("metric", name), slog.Float64("value", value))
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}
	logger.LogAttrs(ctx, slog.LevelDebug, "metric", attrs...)
}

func baseAttrs(ctx context.Context, attrs ...slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs)+3)
	out = append(out, attrs...)
	if id := SessionFrom(ctx); id != "" {
		out = append(out, slog.String("session_id", id))
	}
	return out
}
