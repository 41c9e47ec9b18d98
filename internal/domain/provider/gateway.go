package provider

import (
	"context"
	"fmt"
	"time"

	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	"tolk-server-go/internal/platform/observability"
)

// Gateway is the single Invoker the rest of the server talks to.
// It resolves the model key, checks the capability and hands the call to the vendor adapter.
type Gateway struct {
	registry *Registry
	adapters map[Vendor]Adapter
	logger   *logging.Logger
}

// NewGateway 创建供应商网关
func NewGateway(registry *Registry, logger *logging.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		adapters: make(map[Vendor]Adapter),
		logger:   logger,
	}
}

// RegisterAdapter 注册某个供应商变体的适配器
func (g *Gateway) RegisterAdapter(vendor Vendor, adapter Adapter) {
	g.adapters[vendor] = adapter
}

// Registry exposes the underlying model registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Invoke 调用模型键对应的供应商
func (g *Gateway) Invoke(ctx context.Context, req Request) (*Response, error) {
	op := "provider." + string(req.Capability)

	endpoint, err := g.registry.Lookup(req.ModelKey)
	if err != nil {
		return nil, err
	}
	if !endpoint.Supports(req.Capability) {
		return nil, errors.New(errors.KindConfig, op,
			fmt.Sprintf("model %q does not support %s", req.ModelKey, req.Capability))
	}
	adapter, ok := g.adapters[endpoint.Vendor]
	if !ok {
		return nil, errors.New(errors.KindConfig, op,
			fmt.Sprintf("no adapter for vendor %q", endpoint.Vendor))
	}

	if endpoint.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, endpoint.Timeout)
		defer cancel()
	}

	ctx, finish := observability.StartSpan(ctx, "provider", string(req.Capability))
	start := time.Now()
	resp, err := adapter.Invoke(ctx, endpoint, req)
	if err != nil && errors.KindOf(err) == errors.KindUnknown {
		err = errors.Provider(op, fmt.Sprintf("%s call to %s failed", req.Capability, req.ModelKey), "", err)
	}
	finish(err)

	status := "ok"
	if err != nil {
		status = "error"
		g.logger.WarnTag("LLM", "%s via %s failed: %v", req.Capability, req.ModelKey, err)
	}
	observability.RecordProviderCall(ctx, string(req.Capability), req.ModelKey, status, time.Since(start))

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Transcribe 语音转文字
func Transcribe(ctx context.Context, inv Invoker, modelKey string, audio []byte, filename, language string) (string, error) {
	resp, err := inv.Invoke(ctx, Request{
		Capability:    CapabilityTranscribe,
		ModelKey:      modelKey,
		Audio:         audio,
		AudioFilename: filename,
		Language:      language,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Translate 使用严格翻译提示词进行翻译
func Translate(ctx context.Context, inv Invoker, modelKey, text, from, to string) (string, error) {
	resp, err := inv.Invoke(ctx, Request{
		Capability:   CapabilityTranslate,
		ModelKey:     modelKey,
		Text:         text,
		From:         from,
		To:           to,
		SystemPrompt: TranslationInstruction(from, to),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Summarize 生成双语会话摘要
func Summarize(ctx context.Context, inv Invoker, modelKey, transcript string) (string, error) {
	temperature := SummaryTemperature
	resp, err := inv.Invoke(ctx, Request{
		Capability:   CapabilitySummarize,
		ModelKey:     modelKey,
		Text:         transcript,
		SystemPrompt: SummaryInstruction,
		Temperature:  &temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Synthesize 文字转语音
func Synthesize(ctx context.Context, inv Invoker, modelKey, text, voice string) (*Response, error) {
	return inv.Invoke(ctx, Request{
		Capability: CapabilitySynthesize,
		ModelKey:   modelKey,
		Text:       text,
		Voice:      voice,
	})
}
