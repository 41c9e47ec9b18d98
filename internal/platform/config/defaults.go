package config

import "time"

// DefaultHostLanguage 主持方（丹麦语）语言代码
const DefaultHostLanguage = "da-DK"

// DefaultEnabledLanguages 从语音目录初始化时默认启用的语言
var DefaultEnabledLanguages = []string{
	"da-DK", "en-US", "en-GB", "de-DE", "fr-FR", "es-ES", "nl-NL", "pl-PL",
	"uk-UA", "ar-SA", "tr-TR", "sv-SE", "pt-PT", "it-IT", "ro-RO",
}

func float32Ptr(v float32) *float32 { return &v }

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:             "0.0.0.0",
			Port:           8000,
			StaticDir:      "./web",
			CORSOrigins:    []string{"*"},
			MaxUploadBytes: 25 << 20,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			DSN: "data/tolk.db",
		},
		Languages: LanguagesConfig{
			HostCode:                DefaultHostLanguage,
			HostMarker:              "da-",
			DefaultVoice:            "en-GB-LibbyNeural",
			RecapFallback:           "en",
			DefaultEnabled:          append([]string(nil), DefaultEnabledLanguages...),
			DefaultTranscribeModel:  "azure_speech",
			DefaultTranslationModel: "gpt4o-mini",
			DefaultSummaryModel:     "gpt4o-mini",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			FFmpegPath: "ffmpeg",
		},
		Azure: AzureConfig{
			Auth: "key",
		},
		Providers: map[string]ProviderConfig{
			"azure_speech": {
				Vendor:       "azure_speech",
				Timeout:      60 * time.Second,
				Capabilities: []string{"transcribe"},
			},
			"gpt4o-mini": {
				Vendor:       "azure_openai",
				Deployment:   "gpt-4o-mini",
				APIVersion:   "2024-08-01-preview",
				Temperature:  float32Ptr(0.2),
				Timeout:      60 * time.Second,
				Capabilities: []string{"translate", "summarize"},
			},
			"gpt35": {
				Vendor:       "azure_openai",
				Deployment:   "gpt-35-turbo",
				APIVersion:   "2024-08-01-preview",
				Temperature:  float32Ptr(0.2),
				Timeout:      60 * time.Second,
				Capabilities: []string{"translate", "summarize"},
			},
			"ollama_3": {
				Vendor:       "openai_chat",
				Model:        "llama3",
				Timeout:      120 * time.Second,
				Capabilities: []string{"translate", "summarize"},
			},
			"promte_whisper": {
				Vendor:       "openai_whisper",
				Model:        "whisper-1",
				Timeout:      30 * time.Second,
				Capabilities: []string{"transcribe"},
			},
			"promte_4o": {
				Vendor:       "openai_chat",
				Model:        "gpt-4o",
				Timeout:      60 * time.Second,
				Capabilities: []string{"translate", "summarize"},
			},
			"azure_tts": {
				Vendor:       "azure_tts",
				Timeout:      60 * time.Second,
				Capabilities: []string{"synthesize"},
			},
			"edge_tts": {
				Vendor:       "edge_tts",
				Timeout:      60 * time.Second,
				Capabilities: []string{"synthesize"},
			},
		},
		Synthesis: SynthesisConfig{
			Model:        "azure_tts",
			OutputFormat: "riff-24khz-16bit-mono-pcm",
		},
		VoiceCatalog: VoiceCatalogConfig{
			Driver: "memory",
			Redis: RedisCacheConfig{
				Prefix: "tolk:voices:",
			},
		},
		Observability: ObservabilityConfig{
			Enabled:     true,
			MetricsPath: "/metrics",
		},
	}
}
