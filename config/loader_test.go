// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, ProviderGoogle, cfg.Synthesis.Provider)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  cors_allowed_origins:
    - "https://app.example.com"
    - "http://localhost:3000"

synthesis:
  provider: "yandex"
  timeout: 45s
  max_concurrent: 8

yandex:
  api_key: "key"
  folder_id: "folder"
  voices:
    en: "john"
    ru: "alena"

google:
  tld: "co.uk"
  slow: true

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 验证 YAML 值覆盖了默认值
	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)

	assert.Equal(t, ProviderYandex, cfg.Synthesis.Provider)
	assert.Equal(t, 45*time.Second, cfg.Synthesis.Timeout)
	assert.Equal(t, 8, cfg.Synthesis.MaxConcurrent)
	// 未设置的字段保留默认值
	assert.Equal(t, 5000, cfg.Synthesis.MaxTextLength)

	assert.Equal(t, "key", cfg.Yandex.APIKey)
	assert.Equal(t, "alena", cfg.Yandex.Voices["ru"])
	assert.Equal(t, "tts.api.cloud.yandex.net:443", cfg.Yandex.Endpoint)

	assert.Equal(t, "co.uk", cfg.Google.TLD)
	assert.True(t, cfg.Google.Slow)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("SPEECHGATE_SERVER_HTTP_PORT", "7777")
	t.Setenv("SPEECHGATE_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SPEECHGATE_SYNTHESIS_TIMEOUT", "5s")
	t.Setenv("SPEECHGATE_GOOGLE_SLOW", "true")
	t.Setenv("SPEECHGATE_TELEMETRY_SAMPLE_RATE", "0.5")
	t.Setenv("SPEECHGATE_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Synthesis.Timeout)
	assert.True(t, cfg.Google.Slow)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRate)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
google:
  tld: "de"
  chunk_concurrency: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	// 环境变量应该覆盖 YAML
	t.Setenv("SPEECHGATE_SERVER_HTTP_PORT", "9999")
	t.Setenv("SPEECHGATE_GOOGLE_TLD", "fr")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "fr", cfg.Google.TLD)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, 2, cfg.Google.ChunkConcurrency)
}

func TestLoader_EnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env")

	envContent := `
# Yandex credentials
SPEECHGATE_YANDEX_API_KEY=file-key
SPEECHGATE_YANDEX_FOLDER_ID=file-folder
SPEECHGATE_SERVER_HTTP_PORT=8100
`
	require.NoError(t, os.WriteFile(envPath, []byte(envContent), 0600))

	// 进程环境变量优先于 .env 文件
	t.Setenv("SPEECHGATE_SERVER_HTTP_PORT", "8200")

	cfg, err := NewLoader().
		WithEnvFile(envPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Yandex.APIKey)
	assert.Equal(t, "file-folder", cfg.Yandex.FolderID)
	assert.Equal(t, 8200, cfg.Server.HTTPPort)

	// .env 文件不会写入进程环境
	_, set := os.LookupEnv("SPEECHGATE_YANDEX_API_KEY")
	assert.False(t, set)
}

func TestLoader_MissingEnvFileIgnored(t *testing.T) {
	cfg, err := NewLoader().
		WithEnvFile(filepath.Join(t.TempDir(), "missing.env")).
		Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.HTTPPort)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_SYNTHESIS_DEFAULT_LANGUAGE", "fr")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.Equal(t, "fr", cfg.Synthesis.DefaultLanguage)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("SPEECHGATE_SYNTHESIS_TIMEOUT", "not-a-duration")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("SPEECHGATE_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid HTTP port (negative)",
			modify: func(c *Config) {
				c.Server.HTTPPort = -1
			},
			wantErr: true,
		},
		{
			name: "invalid HTTP port (too large)",
			modify: func(c *Config) {
				c.Server.HTTPPort = 70000
			},
			wantErr: true,
		},
		{
			name: "metrics port disabled",
			modify: func(c *Config) {
				c.Server.MetricsPort = 0
			},
			wantErr: false,
		},
		{
			name: "metrics port collides with HTTP port",
			modify: func(c *Config) {
				c.Server.MetricsPort = c.Server.HTTPPort
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			modify: func(c *Config) {
				c.Synthesis.Provider = "espeak"
			},
			wantErr: true,
		},
		{
			name: "yandex without credentials",
			modify: func(c *Config) {
				c.Synthesis.Provider = ProviderYandex
			},
			wantErr: true,
		},
		{
			name: "yandex with credentials",
			modify: func(c *Config) {
				c.Synthesis.Provider = ProviderYandex
				c.Yandex.APIKey = "k"
				c.Yandex.FolderID = "f"
			},
			wantErr: false,
		},
		{
			name: "zero synthesis timeout",
			modify: func(c *Config) {
				c.Synthesis.Timeout = 0
			},
			wantErr: true,
		},
		{
			name: "zero max concurrent",
			modify: func(c *Config) {
				c.Synthesis.MaxConcurrent = 0
			},
			wantErr: true,
		},
		{
			name: "blank default language",
			modify: func(c *Config) {
				c.Synthesis.DefaultLanguage = "  "
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			modify: func(c *Config) {
				c.Log.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("SPEECHGATE_ARTIFACT_DIR", "/var/tmp/speechgate")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/speechgate", cfg.Artifact.Dir)
}
