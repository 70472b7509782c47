// =============================================================================
// 📦 SpeechGate 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// 支持的语音合成服务
const (
	ProviderGoogle = "google"
	ProviderYandex = "yandex"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Synthesis: DefaultSynthesisConfig(),
		Google:    DefaultGoogleConfig(),
		Yandex:    DefaultYandexConfig(),
		Artifact:  DefaultArtifactConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:           8000,
		MetricsPort:        9091,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       60 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		MaxBodyBytes:       1 << 20, // 1 MB
	}
}

// DefaultSynthesisConfig 返回默认合成配置
func DefaultSynthesisConfig() SynthesisConfig {
	return SynthesisConfig{
		Provider:        ProviderGoogle,
		Timeout:         30 * time.Second,
		MaxConcurrent:   64,
		QueueSize:       256,
		MaxTextLength:   5000,
		DefaultLanguage: "en",
	}
}

// DefaultGoogleConfig 返回默认 Google Translate TTS 配置
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		TLD:              "com",
		Slow:             false,
		Timeout:          10 * time.Second,
		ChunkConcurrency: 4,
	}
}

// DefaultYandexConfig 返回默认 Yandex SpeechKit 配置
func DefaultYandexConfig() YandexConfig {
	return YandexConfig{
		Endpoint: "tts.api.cloud.yandex.net:443",
		Model:    "general",
	}
}

// DefaultArtifactConfig 返回默认临时文件配置
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		Dir: "",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    "speechgate",
		SampleRate:     0.1,
		Insecure:       true,
		ExportInterval: 15 * time.Second,
	}
}
