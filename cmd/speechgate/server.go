package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BaSui01/speechgate/api/handlers"
	"github.com/BaSui01/speechgate/config"
	"github.com/BaSui01/speechgate/internal/artifact"
	"github.com/BaSui01/speechgate/internal/metrics"
	"github.com/BaSui01/speechgate/internal/pool"
	"github.com/BaSui01/speechgate/internal/server"
	"github.com/BaSui01/speechgate/internal/telemetry"
	"github.com/BaSui01/speechgate/speech"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 SpeechGate 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 合成组件
	provider  speech.Provider
	languages speech.LanguageSet
	store     *artifact.Store
	workers   *pool.GoroutinePool

	// Handlers
	healthHandler *handlers.HealthHandler
	speechHandler *handlers.SpeechHandler

	// 可观测性
	collector     *metrics.Collector
	otelProviders *telemetry.Providers
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers, collector *metrics.Collector) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
		collector:     collector,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务。ctx 只约束启动阶段（例如拉取语言列表）。
func (s *Server) Start(ctx context.Context) error {
	// 1. 初始化合成组件
	if err := s.initSynthesis(ctx); err != nil {
		return fmt.Errorf("failed to init synthesis: %w", err)
	}

	// 2. 初始化 Handlers
	s.initHandlers()

	// 3. 启动 HTTP 服务器
	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// 4. 启动 Metrics 服务器
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("provider", s.provider.Name()),
		zap.Int("languages", s.languages.Len()),
	)

	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// providerConfig 把全局配置映射为 speech 工厂配置
func providerConfig(cfg *config.Config) speech.FactoryConfig {
	return speech.FactoryConfig{
		Provider: cfg.Synthesis.Provider,
		Google: speech.GoogleConfig{
			TLD:              cfg.Google.TLD,
			Slow:             cfg.Google.Slow,
			BaseURL:          cfg.Google.BaseURL,
			Timeout:          cfg.Google.Timeout,
			ChunkConcurrency: cfg.Google.ChunkConcurrency,
		},
		Yandex: speech.YandexConfig{
			APIKey:   cfg.Yandex.APIKey,
			FolderID: cfg.Yandex.FolderID,
			Endpoint: cfg.Yandex.Endpoint,
			Model:    cfg.Yandex.Model,
			Voices:   cfg.Yandex.Voices,
		},
	}
}

// initSynthesis 创建 Provider、语言集合、临时文件仓库与工作池。
// s.provider 预先设置时跳过工厂（测试注入）。
func (s *Server) initSynthesis(ctx context.Context) error {
	if s.provider == nil {
		p, err := speech.NewProviderFromConfig(providerConfig(s.cfg), s.logger)
		if err != nil {
			return err
		}
		s.provider = p
	}
	s.provider = speech.NewInstrumentedProvider(s.provider, s.collector, s.logger)

	// 语言集合在启动时构建一次，之后只读
	langs, err := speech.LoadLanguageSet(ctx, s.provider)
	if err != nil {
		return err
	}
	s.languages = langs

	store, err := artifact.NewStore(s.cfg.Artifact.Dir, s.logger)
	if err != nil {
		return err
	}
	s.store = store

	s.workers = pool.NewGoroutinePool(pool.GoroutinePoolConfig{
		MaxWorkers: s.cfg.Synthesis.MaxConcurrent,
		QueueSize:  s.cfg.Synthesis.QueueSize,
		PanicHandler: func(r any) {
			s.logger.Error("synthesis task panicked", zap.Any("panic", r), zap.Stack("stack"))
		},
	})

	s.collector.WatchGauge("synthesis_workers_active", "Synthesis jobs currently running", func() float64 {
		return float64(s.workers.Stats().Active)
	})
	s.collector.WatchGauge("synthesis_queue_length", "Synthesis jobs waiting for a worker", func() float64 {
		return float64(s.workers.Stats().Queued)
	})
	s.collector.WatchGauge("artifacts_live", "Audio artifacts currently on disk", func() float64 {
		return float64(s.store.Live())
	})

	s.logger.Info("Synthesis initialized",
		zap.String("provider", s.provider.Name()),
		zap.Int("languages", langs.Len()),
		zap.String("artifact_dir", store.Dir()),
		zap.Int("max_concurrent", s.cfg.Synthesis.MaxConcurrent),
	)
	return nil
}

// initHandlers 初始化所有 handlers
func (s *Server) initHandlers() {
	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewCheckFunc("languages", func(ctx context.Context) error {
		if s.languages.Len() == 0 {
			return errors.New("no supported languages")
		}
		return nil
	}))
	s.healthHandler.RegisterCheck(handlers.NewCheckFunc("artifact_dir", func(ctx context.Context) error {
		return s.store.CheckWritable()
	}))
	s.healthHandler.SetSynthesisInfo(s.provider.Name(), s.languages.Len())

	s.speechHandler = handlers.NewSpeechHandler(
		s.provider,
		s.languages,
		s.store,
		s.workers,
		handlers.SpeechConfig{
			DefaultLanguage: s.cfg.Synthesis.DefaultLanguage,
			Timeout:         s.cfg.Synthesis.Timeout,
			MaxTextLength:   s.cfg.Synthesis.MaxTextLength,
		},
		s.collector,
		s.logger,
	)

	s.logger.Info("Handlers initialized",
		zap.Strings("readiness_checks", s.healthHandler.CheckNames()),
	)
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// routes 构建路由与中间件链
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	// API 路由
	mux.HandleFunc("/api/text-to-speech", s.speechHandler.HandleTextToSpeech)
	mux.HandleFunc("/api/languages", s.speechHandler.HandleLanguages)

	mux.HandleFunc("/", handlers.HandleNotFound)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		MaxBody(s.cfg.Server.MaxBodyBytes),
	)
}

// startHTTPServer 启动 API 服务器
func (s *Server) startHTTPServer() error {
	serverConfig := server.DefaultConfig()
	serverConfig.Addr = fmt.Sprintf(":%d", s.cfg.Server.HTTPPort)
	serverConfig.ReadTimeout = s.cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = s.cfg.Server.WriteTimeout
	serverConfig.IdleTimeout = 2 * s.cfg.Server.ReadTimeout
	serverConfig.ShutdownTimeout = s.cfg.Server.ShutdownTimeout

	s.httpManager = server.NewManager("api", s.routes(), serverConfig, s.logger)

	// 启动服务器（非阻塞）
	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

// startMetricsServer 启动 Metrics 服务器，metrics_port 为 0 时跳过
func (s *Server) startMetricsServer() error {
	if s.cfg.Server.MetricsPort == 0 {
		s.logger.Info("Metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = fmt.Sprintf(":%d", s.cfg.Server.MetricsPort)
	serverConfig.ReadTimeout = s.cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = s.cfg.Server.WriteTimeout
	serverConfig.ShutdownTimeout = s.cfg.Server.ShutdownTimeout

	s.metricsManager = server.NewManager("metrics", mux, serverConfig, s.logger)

	return s.metricsManager.Start()
}

func (s *Server) managers() []*server.Manager {
	var out []*server.Manager
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号或 ctx 结束，关闭 HTTP 服务后释放合成组件
func (s *Server) WaitForShutdown(ctx context.Context) error {
	err := server.WaitForShutdown(ctx, s.logger, s.managers()...)
	s.Shutdown()
	return err
}

// Shutdown 释放合成组件并刷新遥测数据。HTTP 服务器已停止时调用，
// 也可在启动失败后调用。
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	if s.healthHandler != nil {
		s.healthHandler.SetDraining()
	}

	// 1. 启动失败时服务器可能仍在运行
	for _, m := range s.managers() {
		if err := m.Shutdown(context.Background()); err != nil {
			s.logger.Error("server shutdown error", zap.String("server", m.Name()), zap.Error(err))
		}
	}

	// 2. 等待进行中的合成任务
	if s.workers != nil {
		s.workers.Close()
	}

	// 3. 关闭 Provider 连接
	if c, ok := s.provider.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Error("provider close error", zap.Error(err))
		}
	}

	// 4. 刷新遥测数据
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.otelProviders.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown error", zap.Error(err))
	}

	s.logger.Info("Graceful shutdown completed")
}
