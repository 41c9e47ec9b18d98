package adapters

import (
	"net/http"

	"tolk-server-go/internal/domain/provider"
	"tolk-server-go/internal/domain/provider/adapters/azure"
	"tolk-server-go/internal/domain/provider/adapters/edge"
	"tolk-server-go/internal/domain/provider/adapters/openai"
)

// Options 适配器公共参数
type Options struct {
	// Entra authorizes azure_openai calls when set; nil keeps api-key auth.
	Entra           provider.Authorizer
	HTTPClient      *http.Client
	TTSOutputFormat string
}

// Install registers every vendor adapter on the gateway.
func Install(g *provider.Gateway, opts Options) {
	chat := openai.NewChatAdapter(opts.Entra)
	g.RegisterAdapter(provider.VendorAzureSpeech, &azure.SpeechAdapter{Client: opts.HTTPClient})
	g.RegisterAdapter(provider.VendorOpenAIWhisper, openai.NewWhisperAdapter())
	g.RegisterAdapter(provider.VendorAzureOpenAI, chat)
	g.RegisterAdapter(provider.VendorOpenAIChat, chat)
	g.RegisterAdapter(provider.VendorAzureTTS, &azure.TTSAdapter{Client: opts.HTTPClient, OutputFormat: opts.TTSOutputFormat})
	g.RegisterAdapter(provider.VendorEdgeTTS, &edge.Adapter{})
}
