// =============================================================================
// SpeechGate 主入口
// =============================================================================
// 文本转语音网关，包含 HTTP 服务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	speechgate serve                       # 启动服务
//	speechgate serve --config config.yaml  # 指定配置文件
//	speechgate serve --env-file .env       # 额外加载 .env 文件
//	speechgate languages                   # 列出支持的语言
//	speechgate version                     # 显示版本信息
//	speechgate health                      # 健康检查
// =============================================================================

// @title SpeechGate API
// @version 1.0.0
// @description SpeechGate validates a language code and turns text into MP3 audio through an external speech provider.

// @contact.name SpeechGate Team
// @contact.url https://github.com/BaSui01/speechgate

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/speechgate/config"
	"github.com/BaSui01/speechgate/internal/metrics"
	"github.com/BaSui01/speechgate/internal/telemetry"
	"github.com/BaSui01/speechgate/speech"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "languages":
		runLanguages(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", ".env", "Path to .env file (ignored when missing)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting SpeechGate",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("provider", cfg.Synthesis.Provider),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, telemetry.ServiceInfo{
		Version:  Version,
		Provider: cfg.Synthesis.Provider,
	}, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("speechgate", logger)
	server := NewServer(cfg, logger, otelProviders, collector)

	if err := server.Start(ctx); err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		server.Shutdown()
		os.Exit(1)
	}

	if err := server.WaitForShutdown(ctx); err != nil {
		logger.Error("SpeechGate stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("SpeechGate stopped")
}

// loadConfig 按 默认值 → YAML → .env → 环境变量 的顺序加载并校验配置
func loadConfig(configPath, envFile string) (*config.Config, error) {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	if envFile != "" {
		loader = loader.WithEnvFile(envFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🌐 languages 命令
// =============================================================================

func runLanguages(args []string) {
	fs := flag.NewFlagSet("languages", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", ".env", "Path to .env file (ignored when missing)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	provider, err := speech.NewProviderFromConfig(providerConfig(cfg), zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create provider: %v\n", err)
		os.Exit(1)
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	langs, err := speech.LoadLanguageSet(ctx, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load languages: %v\n", err)
		os.Exit(1)
	}

	if err := printLanguages(os.Stdout, provider.Name(), langs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print languages: %v\n", err)
		os.Exit(1)
	}
}

func printLanguages(w io.Writer, provider string, langs speech.LanguageSet) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %s: %d languages\n", provider, langs.Len())
	for _, l := range langs.Languages() {
		fmt.Fprintf(tw, "%s\t%s\n", l.Code, l.Name)
	}
	return tw.Flush()
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8000", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("SpeechGate %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`SpeechGate - text-to-speech gateway

Usage:
  speechgate <command> [options]

Commands:
  serve       Start the SpeechGate server
  languages   List the languages the configured provider supports
  version     Show version information
  health      Check server health
  help        Show this help message

Options for 'serve' and 'languages':
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file (default .env, ignored when missing)

Examples:
  speechgate serve
  speechgate serve --config /etc/speechgate/config.yaml
  SPEECHGATE_SYNTHESIS_PROVIDER=yandex speechgate languages
  speechgate health --addr http://localhost:8000
  speechgate version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
