package config

import (
	"time"
)

type Config struct {
	Server        ServerConfig              `yaml:"server" mapstructure:"server"`
	Log           LogConfig                 `yaml:"log" mapstructure:"log"`
	Database      DatabaseConfig            `yaml:"database" mapstructure:"database"`
	Languages     LanguagesConfig           `yaml:"languages" mapstructure:"languages"`
	Audio         AudioConfig               `yaml:"audio" mapstructure:"audio"`
	Azure         AzureConfig               `yaml:"azure" mapstructure:"azure"`
	Providers     map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	Synthesis     SynthesisConfig           `yaml:"synthesis" mapstructure:"synthesis"`
	VoiceCatalog  VoiceCatalogConfig        `yaml:"voice_catalog" mapstructure:"voice_catalog"`
	Observability ObservabilityConfig       `yaml:"observability" mapstructure:"observability"`
}

type ServerConfig struct {
	IP          string   `yaml:"ip" mapstructure:"ip"`
	Port        int      `yaml:"port" mapstructure:"port"`
	StaticDir   string   `yaml:"static_dir" mapstructure:"static_dir"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	JWTSecret   string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	// MaxUploadBytes 上传音频的最大字节数
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type DatabaseConfig struct {
	// DSN sqlite 数据库路径，":memory:" 表示内存库
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	// EventRetention 启动时删除早于该时长的事件记录，0 表示永久保留
	EventRetention time.Duration `yaml:"event_retention" mapstructure:"event_retention"`
}

// LanguagesConfig 会话语言相关配置
type LanguagesConfig struct {
	HostCode     string `yaml:"host_code" mapstructure:"host_code"`
	HostMarker   string `yaml:"host_marker" mapstructure:"host_marker"`
	DefaultVoice string `yaml:"default_voice" mapstructure:"default_voice"`
	// RecapFallback 会话未绑定访客语言时用于解析摘要模型的语言
	RecapFallback string `yaml:"recap_fallback" mapstructure:"recap_fallback"`

	DefaultEnabled          []string `yaml:"default_enabled" mapstructure:"default_enabled"`
	DefaultTranscribeModel  string   `yaml:"default_transcribe_model" mapstructure:"default_transcribe_model"`
	DefaultTranslationModel string   `yaml:"default_translation_model" mapstructure:"default_translation_model"`
	DefaultSummaryModel     string   `yaml:"default_summary_model" mapstructure:"default_summary_model"`
}

type AudioConfig struct {
	SampleRate int    `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels   int    `yaml:"channels" mapstructure:"channels"`
	FFmpegPath string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	TempDir    string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// AzureConfig Azure 语音服务与鉴权配置
type AzureConfig struct {
	SpeechKey    string `yaml:"speech_key" mapstructure:"speech_key"`
	SpeechRegion string `yaml:"speech_region" mapstructure:"speech_region"`
	// Auth 取值 key 或 entra
	Auth         string `yaml:"auth" mapstructure:"auth"`
	TenantID     string `yaml:"tenant_id" mapstructure:"tenant_id"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
}

// ProviderConfig 单个模型键的调用端点
type ProviderConfig struct {
	Vendor       string        `yaml:"vendor" mapstructure:"vendor"`
	URL          string        `yaml:"url" mapstructure:"url"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	Model        string        `yaml:"model" mapstructure:"model"`
	Deployment   string        `yaml:"deployment" mapstructure:"deployment"`
	APIVersion   string        `yaml:"api_version" mapstructure:"api_version"`
	Temperature  *float32      `yaml:"temperature,omitempty" mapstructure:"temperature"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Capabilities []string      `yaml:"capabilities" mapstructure:"capabilities"`
}

type SynthesisConfig struct {
	// Model 合成所用的模型键，需在 providers 中注册
	Model        string `yaml:"model" mapstructure:"model"`
	OutputFormat string `yaml:"output_format" mapstructure:"output_format"`
}

type VoiceCatalogConfig struct {
	Driver string           `yaml:"driver" mapstructure:"driver"`
	URL    string           `yaml:"url" mapstructure:"url"`
	TTL    time.Duration    `yaml:"ttl" mapstructure:"ttl"`
	Redis  RedisCacheConfig `yaml:"redis" mapstructure:"redis"`
}

type RedisCacheConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

type ObservabilityConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	MetricsPath string `yaml:"metrics_path" mapstructure:"metrics_path"`
}
