package openai

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/platform/errors"
)

// known path suffixes that deployments paste into endpoint urls
var endpointSuffixes = []string{"/chat/completions", "/audio/transcriptions"}

// clientFactory builds and caches one go-openai client per endpoint key.
type clientFactory struct {
	mu       sync.Mutex
	clients  map[string]*goopenai.Client
	entra    provider.Authorizer
	useEntra bool
}

func newClientFactory(entra provider.Authorizer) *clientFactory {
	return &clientFactory{
		clients:  make(map[string]*goopenai.Client),
		entra:    entra,
		useEntra: entra != nil,
	}
}

func (f *clientFactory) get(ep provider.Endpoint) (*goopenai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.clients[ep.Key]; ok {
		return c, nil
	}

	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	d := &doer{client: &http.Client{Timeout: timeout}}

	var cfg goopenai.ClientConfig
	switch ep.Vendor {
	case provider.VendorAzureOpenAI:
		base, deployment, apiVersion, err := parseAzureURL(ep)
		if err != nil {
			return nil, err
		}
		cfg = goopenai.DefaultAzureConfig(ep.APIKey, base)
		cfg.APIVersion = apiVersion
		cfg.AzureModelMapperFunc = func(string) string { return deployment }
		if f.useEntra {
			cfg.APIType = goopenai.APITypeAzureAD
			d.authorizer = f.entra
		}
	default:
		cfg = goopenai.DefaultConfig(ep.APIKey)
		cfg.BaseURL = trimEndpoint(ep.URL)
	}
	cfg.HTTPClient = d

	c := goopenai.NewClientWithConfig(cfg)
	f.clients[ep.Key] = c
	return c, nil
}

func trimEndpoint(raw string) string {
	out := strings.TrimRight(strings.TrimSpace(raw), "/")
	for _, suffix := range endpointSuffixes {
		out = strings.TrimSuffix(out, suffix)
	}
	return out
}

// parseAzureURL accepts either a resource base url or a full
// .../openai/deployments/{name}/chat/completions?api-version=... url.
func parseAzureURL(ep provider.Endpoint) (base, deployment, apiVersion string, err error) {
	u, err := url.Parse(strings.TrimSpace(ep.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", "", errors.New(errors.KindConfig, "openai.azure_url", "invalid azure openai url "+ep.URL)
	}

	deployment = ep.Deployment
	apiVersion = ep.APIVersion
	if v := u.Query().Get("api-version"); v != "" {
		apiVersion = v
	}

	path := u.Path
	if i := strings.Index(path, "/openai/deployments/"); i >= 0 {
		rest := strings.TrimPrefix(path[i:], "/openai/deployments/")
		if name := strings.SplitN(rest, "/", 2)[0]; name != "" {
			deployment = name
		}
		path = path[:i]
	}
	if deployment == "" {
		return "", "", "", errors.New(errors.KindConfig, "openai.azure_url", "azure openai endpoint "+ep.Key+" has no deployment")
	}
	if apiVersion == "" {
		apiVersion = "2024-08-01-preview"
	}

	base = u.Scheme + "://" + u.Host + strings.TrimRight(path, "/")
	return base, deployment, apiVersion, nil
}
