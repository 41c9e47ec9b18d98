package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tolk"

var (
	// providerCallDuration 供应商调用耗时
	providerCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of provider calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"capability", "model"},
	)

	providerCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Total number of provider calls",
		},
		[]string{"capability", "model", "status"},
	)

	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of processed conversation turns",
		},
		[]string{"from", "to", "status"},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session lifecycle transitions",
		},
		[]string{"status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	liveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_connections",
			Help:      "Open live websocket connections",
		},
	)

	allMetrics = []prometheus.Collector{
		providerCallDuration,
		providerCallsTotal,
		turnsTotal,
		sessionsTotal,
		httpRequestDuration,
		liveConnections,
	}

	registryOnce sync.Once
	registry     *prometheus.Registry
)

// Registry returns the process-wide metrics registry with all collectors registered.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(allMetrics...)
		registry.MustRegister(prometheus.NewGoCollector())
	})
	return registry
}

// Handler 返回 /metrics 的 HTTP 处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordProviderCall 记录一次供应商调用
func RecordProviderCall(ctx context.Context, capability, model, status string, elapsed time.Duration) {
	providerCallDuration.WithLabelValues(capability, model).Observe(elapsed.Seconds())
	providerCallsTotal.WithLabelValues(capability, model, status).Inc()
	RecordMetric(ctx, "provider_call", elapsed.Seconds(), map[string]string{
		"capability": capability,
		"model":      model,
		"status":     status,
	})
}

// RecordTurn 记录一次翻译轮次
func RecordTurn(from, to, status string) {
	turnsTotal.WithLabelValues(from, to, status).Inc()
}

// RecordSessionTransition 记录会话状态迁移
func RecordSessionTransition(status string) {
	sessionsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest 记录 HTTP 请求耗时
func RecordHTTPRequest(method, route, status string, elapsed time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// RecordLiveConnection 实时连接数增减
func RecordLiveConnection(delta int) {
	liveConnections.Add(float64(delta))
}
