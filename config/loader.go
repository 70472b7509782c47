// =============================================================================
// 📦 SpeechGate 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + .env 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvFile(".env").
//	    WithEnvPrefix("SPEECHGATE").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → .env 文件 → 环境变量
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 SpeechGate 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Synthesis 语音合成调度配置
	Synthesis SynthesisConfig `yaml:"synthesis" env:"SYNTHESIS"`

	// Google Google Translate 语音服务配置
	Google GoogleConfig `yaml:"google" env:"GOOGLE"`

	// Yandex Yandex SpeechKit 配置
	Yandex YandexConfig `yaml:"yandex" env:"YANDEX"`

	// Artifact 临时音频文件配置
	Artifact ArtifactConfig `yaml:"artifact" env:"ARTIFACT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口（0 表示不启动指标服务）
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 允许跨域的来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 请求体最大字节数
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// SynthesisConfig 语音合成调度配置
type SynthesisConfig struct {
	// Provider 名称: google, yandex
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 单次合成超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大并发合成数
	MaxConcurrent int `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	// 等待队列长度
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
	// 文本最大字符数（0 表示不限制）
	MaxTextLength int `yaml:"max_text_length" env:"MAX_TEXT_LENGTH"`
	// 请求未指定语言时使用的默认语言
	DefaultLanguage string `yaml:"default_language" env:"DEFAULT_LANGUAGE"`
}

// GoogleConfig Google Translate TTS 配置
type GoogleConfig struct {
	// 顶级域名，例如 com, co.uk
	TLD string `yaml:"tld" env:"TLD"`
	// 慢速朗读
	Slow bool `yaml:"slow" env:"SLOW"`
	// 基础 URL（覆盖 TLD，测试用）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 单个分片请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 分片并发请求数
	ChunkConcurrency int `yaml:"chunk_concurrency" env:"CHUNK_CONCURRENCY"`
}

// YandexConfig Yandex SpeechKit 配置
type YandexConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Folder ID
	FolderID string `yaml:"folder_id" env:"FOLDER_ID"`
	// gRPC 端点
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	// 合成模型
	Model string `yaml:"model" env:"MODEL"`
	// 语言到声音的映射（仅 YAML）
	Voices map[string]string `yaml:"voices" env:"-"`
}

// ArtifactConfig 临时音频文件配置
type ArtifactConfig struct {
	// 临时目录（为空时使用系统临时目录）
	Dir string `yaml:"dir" env:"DIR"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
	// 不使用 TLS 连接采集器（本地 collector）
	Insecure bool `yaml:"insecure" env:"INSECURE"`
	// 指标导出间隔，0 使用 SDK 默认值
	ExportInterval time.Duration `yaml:"export_interval" env:"EXPORT_INTERVAL"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envFiles   []string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "SPEECHGATE",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvFile 添加 .env 文件，不存在的文件会被忽略
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFiles = append(l.envFiles, path)
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → .env 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 读取 .env 文件（不修改进程环境变量）
	dotenv, err := l.readEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	// 4. 从环境变量覆盖
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix, lookup); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// readEnvFiles 读取所有 .env 文件，后面的文件覆盖前面的
func (l *Loader) readEnvFiles() (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range l.envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string, lookup func(string) string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey, lookup); err != nil {
				return err
			}
			continue
		}

		envValue := lookup(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	// 验证服务器配置
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, "metrics port must differ from HTTP port")
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "max_body_bytes must be positive")
	}

	// 验证合成配置
	switch c.Synthesis.Provider {
	case ProviderGoogle:
	case ProviderYandex:
		if c.Yandex.APIKey == "" || c.Yandex.FolderID == "" {
			errs = append(errs, "yandex provider requires api_key and folder_id")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown synthesis provider %q", c.Synthesis.Provider))
	}
	if c.Synthesis.Timeout <= 0 {
		errs = append(errs, "synthesis timeout must be positive")
	}
	if c.Synthesis.MaxConcurrent <= 0 {
		errs = append(errs, "max_concurrent must be positive")
	}
	if c.Synthesis.MaxTextLength < 0 {
		errs = append(errs, "max_text_length must not be negative")
	}
	if strings.TrimSpace(c.Synthesis.DefaultLanguage) == "" {
		errs = append(errs, "default_language must not be empty")
	}

	// 验证日志配置
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, "log format must be json or console")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
