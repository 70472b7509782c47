package speech

import "time"

// GoogleConfig 配置 Google Translate TTS 供应商.
type GoogleConfig struct {
	TLD              string        `json:"tld" yaml:"tld"` // com, co.uk, com.au
	Slow             bool          `json:"slow" yaml:"slow"`
	BaseURL          string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout          time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	ChunkConcurrency int           `json:"chunk_concurrency,omitempty" yaml:"chunk_concurrency,omitempty"`
}

// YandexConfig 配置 Yandex SpeechKit v3 供应商.
type YandexConfig struct {
	APIKey   string            `json:"api_key" yaml:"api_key"`
	FolderID string            `json:"folder_id" yaml:"folder_id"`
	Endpoint string            `json:"endpoint" yaml:"endpoint"`
	Model    string            `json:"model,omitempty" yaml:"model,omitempty"`
	Voices   map[string]string `json:"voices,omitempty" yaml:"voices,omitempty"`

	// Insecure dials without TLS (local emulators and tests).
	Insecure bool `json:"-" yaml:"-"`
}

// DefaultGoogleConfig 返回默认 Google Translate TTS 配置。
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		TLD:              "com",
		Timeout:          10 * time.Second,
		ChunkConcurrency: 4,
	}
}

// DefaultYandexConfig 返回默认 Yandex SpeechKit 配置。
func DefaultYandexConfig() YandexConfig {
	return YandexConfig{
		Endpoint: "tts.api.cloud.yandex.net:443",
		Model:    "general",
	}
}

// defaultYandexVoices maps the SpeechKit v3 languages to one stock voice each.
var defaultYandexVoices = map[string]string{
	"en": "john",
	"ru": "alena",
	"de": "lea",
	"kk": "amira",
	"uz": "nigora",
	"he": "naomi",
}

var yandexLanguageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"de": "German",
	"kk": "Kazakh",
	"uz": "Uzbek",
	"he": "Hebrew",
}
