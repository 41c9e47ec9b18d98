package provider

import (
	"fmt"
	"sort"
	"strings"

	"tolk-server-go/internal/platform/config"
	"tolk-server-go/internal/platform/errors"
)

// Registry maps model keys to endpoints. It is read-only after construction.
type Registry struct {
	endpoints map[string]Endpoint
}

// NewRegistry 创建模型注册表
func NewRegistry(endpoints ...Endpoint) *Registry {
	r := &Registry{endpoints: make(map[string]Endpoint, len(endpoints))}
	for _, ep := range endpoints {
		r.endpoints[ep.Key] = ep
	}
	return r
}

// NewRegistryFromConfig 根据 providers 配置构建注册表
func NewRegistryFromConfig(providers map[string]config.ProviderConfig) (*Registry, error) {
	endpoints := make([]Endpoint, 0, len(providers))
	for key, p := range providers {
		caps := make([]Capability, 0, len(p.Capabilities))
		for _, raw := range p.Capabilities {
			c := Capability(strings.ToLower(strings.TrimSpace(raw)))
			switch c {
			case CapabilityTranscribe, CapabilityTranslate, CapabilitySummarize, CapabilitySynthesize:
				caps = append(caps, c)
			default:
				return nil, errors.New(errors.KindConfig, "provider.registry", fmt.Sprintf("provider %s has unknown capability %q", key, raw))
			}
		}
		endpoints = append(endpoints, Endpoint{
			Key:          key,
			Vendor:       Vendor(p.Vendor),
			URL:          p.URL,
			APIKey:       p.APIKey,
			Model:        p.Model,
			Deployment:   p.Deployment,
			APIVersion:   p.APIVersion,
			Temperature:  p.Temperature,
			Timeout:      p.Timeout,
			Capabilities: caps,
		})
	}
	return NewRegistry(endpoints...), nil
}

// Lookup 返回模型键对应的端点，未注册或缺少地址时返回配置错误
func (r *Registry) Lookup(modelKey string) (Endpoint, error) {
	ep, ok := r.endpoints[modelKey]
	if !ok {
		return Endpoint{}, errors.New(errors.KindConfig, "provider.lookup", fmt.Sprintf("model %q is not registered", modelKey))
	}
	if ep.Vendor.RequiresURL() && strings.TrimSpace(ep.URL) == "" {
		return Endpoint{}, errors.New(errors.KindConfig, "provider.lookup", fmt.Sprintf("model %q has no endpoint url", modelKey))
	}
	return ep, nil
}

// Keys 返回已注册的模型键（排序后）
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.endpoints))
	for k := range r.endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
