package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tolk-server-go/internal/platform/errors"
)

// DefaultSearchPaths 未显式指定配置文件时依次查找的位置
var DefaultSearchPaths = []string{"config.yaml", ".config.yaml", "data/config.yaml"}

// envProviderURLs 原部署使用的模型地址环境变量
var envProviderURLs = map[string]string{
	"MODEL_AZURE_SPEECH_URL":    "azure_speech",
	"MODEL_AZURE_GPT4OMINI_URL": "gpt4o-mini",
	"MODEL_GPT35_URL":           "gpt35",
	"MODEL_OLLAMA_3_URL":        "ollama_3",
	"PROMTE_WHISPER":            "promte_whisper",
	"PROMTE_4O":                 "promte_4o",
}

// Loader reads defaults, an optional yaml file and environment overrides, in that order.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a loader that searches DefaultSearchPaths and reads .env.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the yaml file to read.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides the environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("未找到 .env 文件，使用系统环境变量")
		}
	}

	cfg := DefaultConfig()
	path, err := l.readFile(cfg)
	if err != nil {
		return nil, err
	}

	l.applyEnv(cfg)
	applyDerived(cfg)

	if err := l.Validate(cfg); err != nil {
		return nil, err
	}

	if path == "" {
		path = "defaults"
	}
	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) readFile(cfg *Config) (string, error) {
	candidates := DefaultSearchPaths
	if l.path != "" {
		candidates = []string{l.path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) && l.path == "" {
				continue
			}
			return "", errors.Wrap(errors.KindConfig, "config.read", "failed to read config file "+candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", errors.Wrap(errors.KindConfig, "config.parse", "failed to parse config file "+candidate, err)
		}
		return candidate, nil
	}
	return "", nil
}

func (l *Loader) env(key string) (string, bool) {
	value, ok := l.lookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (l *Loader) applyEnv(cfg *Config) {
	if v, ok := l.env("AZURE_SPEECH_KEY"); ok {
		cfg.Azure.SpeechKey = v
	}
	if v, ok := l.env("AZURE_SPEECH_REGION"); ok {
		cfg.Azure.SpeechRegion = v
	}
	if v, ok := l.env("API_KEY"); ok {
		cfg.Server.APIKey = v
	}
	if v, ok := l.env("JWT_SECRET"); ok {
		cfg.Server.JWTSecret = v
	}
	if v, ok := l.env("DATABASE_DSN"); ok {
		cfg.Database.DSN = v
	}
	if v, ok := l.env("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := l.env("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := l.env("REDIS_ADDR"); ok {
		cfg.VoiceCatalog.Driver = "redis"
		cfg.VoiceCatalog.Redis.Addr = v
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for envKey, modelKey := range envProviderURLs {
		if v, ok := l.env(envKey); ok {
			p := cfg.Providers[modelKey]
			p.URL = v
			cfg.Providers[modelKey] = p
		}
	}

	azureOpenAIKey, hasAzureOpenAIKey := l.env("AZURE_OPENAI_KEY")
	promteKey, hasPromteKey := l.env("PROMTE_API_KEY")
	for key, p := range cfg.Providers {
		if p.APIKey != "" {
			continue
		}
		switch {
		case p.Vendor == "azure_openai" && hasAzureOpenAIKey:
			p.APIKey = azureOpenAIKey
		case strings.HasPrefix(key, "promte_") && hasPromteKey:
			p.APIKey = promteKey
		}
		cfg.Providers[key] = p
	}
}

// applyDerived 根据 Azure 区域补全未配置的语音端点与密钥
func applyDerived(cfg *Config) {
	region := strings.TrimSpace(cfg.Azure.SpeechRegion)
	for key, p := range cfg.Providers {
		switch p.Vendor {
		case "azure_speech":
			if p.URL == "" && region != "" {
				p.URL = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region)
			}
			if p.APIKey == "" {
				p.APIKey = cfg.Azure.SpeechKey
			}
		case "azure_tts":
			if p.URL == "" && region != "" {
				p.URL = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
			}
			if p.APIKey == "" {
				p.APIKey = cfg.Azure.SpeechKey
			}
		}
		cfg.Providers[key] = p
	}
	if cfg.VoiceCatalog.URL == "" && region != "" {
		cfg.VoiceCatalog.URL = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", region)
	}
}

// Validate checks the settings the server cannot start without.
func (l *Loader) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.KindConfig, "config.validate", "config is nil")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("invalid server port %d", cfg.Server.Port))
	}
	if strings.TrimSpace(cfg.Languages.HostCode) == "" {
		return errors.New(errors.KindConfig, "config.validate", "languages.host_code is required")
	}
	if cfg.Audio.SampleRate <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "audio.sample_rate must be positive")
	}
	if cfg.Audio.Channels <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "audio.channels must be positive")
	}
	switch cfg.VoiceCatalog.Driver {
	case "", "memory":
	case "redis":
		if cfg.VoiceCatalog.Redis.Addr == "" {
			return errors.New(errors.KindConfig, "config.validate", "voice_catalog.redis.addr is required for the redis driver")
		}
	default:
		return errors.New(errors.KindConfig, "config.validate", "unsupported voice_catalog.driver "+cfg.VoiceCatalog.Driver)
	}
	for key, p := range cfg.Providers {
		if p.Vendor == "" {
			return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("provider %s has no vendor", key))
		}
	}
	return nil
}
