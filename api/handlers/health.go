package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// defaultCheckTimeout 单个就绪检查的超时
const defaultCheckTimeout = 2 * time.Second

// 健康状态取值
const (
	StatusHealthy   = "healthy"
	StatusDraining  = "draining"
	StatusUnhealthy = "unhealthy"
)

// HealthCheck 就绪检查接口
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// SynthesisInfo 当前合成后端的概况
type SynthesisInfo struct {
	Provider  string `json:"provider"`
	Languages int    `json:"languages"`
}

// HealthStatus 健康状态响应
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Synthesis *SynthesisInfo         `json:"synthesis,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个检查结果
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthHandler 存活、就绪与版本端点。
// 进入 draining 后 /ready 返回 503，负载均衡器据此摘除实例。
type HealthHandler struct {
	logger       *zap.Logger
	checkTimeout time.Duration

	mu     sync.RWMutex
	checks []HealthCheck
	info   *SynthesisInfo

	draining atomic.Bool
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger:       logger.With(zap.String("component", "health")),
		checkTimeout: defaultCheckTimeout,
	}
}

// RegisterCheck 注册就绪检查
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// SetSynthesisInfo 记录合成后端信息，出现在所有健康响应中
func (h *HealthHandler) SetSynthesisInfo(provider string, languages int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = &SynthesisInfo{Provider: provider, Languages: languages}
}

// SetDraining 标记服务正在关闭
func (h *HealthHandler) SetDraining() {
	if !h.draining.Swap(true) {
		h.logger.Info("readiness switched to draining")
	}
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleHealth 处理 /health 请求（存活检查）
// @Summary 健康检查
// @Description 进程存活即返回 200，附带合成后端信息
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务正常"
// @Router /health [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.status(StatusHealthy))
}

// HandleHealthz 处理 /healthz 请求（Kubernetes 活跃度探针），与 /health 相同
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	h.HandleHealth(w, r)
}

// HandleReady 处理 /ready 或 /readyz 请求。
// 所有检查并发执行，任何一项失败或正在关闭时返回 503。
// @Summary 就绪检查
// @Description 检查语言集合与临时文件目录是否可用
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务已准备就绪"
// @Failure 503 {object} HealthStatus "服务尚未准备好或正在关闭"
// @Router /ready [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		WriteJSON(w, http.StatusServiceUnavailable, h.status(StatusDraining))
		return
	}

	h.mu.RLock()
	checks := append([]HealthCheck(nil), h.checks...)
	h.mu.RUnlock()

	results := h.runChecks(r.Context(), checks)

	status := h.status(StatusHealthy)
	status.Checks = make(map[string]CheckResult, len(results))
	for i, res := range results {
		status.Checks[checks[i].Name()] = res
		if res.Status != "pass" {
			status.Status = StatusUnhealthy
		}
	}

	if status.Status != StatusHealthy {
		WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Description 返回版本信息
// @Tags 健康
// @Produce json
// @Success 200 {object} map[string]string "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		}
		if s := h.synthesisInfo(); s != nil {
			info["provider"] = s.Provider
		}

		WriteSuccess(w, r, info)
	}
}

// =============================================================================
// 🔧 内部实现
// =============================================================================

func (h *HealthHandler) synthesisInfo() *SynthesisInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.info
}

func (h *HealthHandler) status(s string) HealthStatus {
	return HealthStatus{
		Status:    s,
		Timestamp: time.Now(),
		Synthesis: h.synthesisInfo(),
	}
}

// runChecks 并发执行检查，结果与 checks 一一对应
func (h *HealthHandler) runChecks(ctx context.Context, checks []HealthCheck) []CheckResult {
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
			defer cancel()

			start := time.Now()
			err := check.Check(cctx)
			latency := time.Since(start)

			results[i] = CheckResult{Status: "pass", Latency: latency.String()}
			if err != nil {
				results[i].Status = "fail"
				results[i].Message = err.Error()
				h.logger.Warn("readiness check failed",
					zap.String("check", check.Name()),
					zap.Error(err),
					zap.Duration("latency", latency),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// =============================================================================
// 🔧 函数式检查
// =============================================================================

// CheckFunc 把函数适配为 HealthCheck
type CheckFunc struct {
	name  string
	check func(ctx context.Context) error
}

// NewCheckFunc 创建函数式健康检查
func NewCheckFunc(name string, check func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, check: check}
}

func (c *CheckFunc) Name() string { return c.name }

func (c *CheckFunc) Check(ctx context.Context) error { return c.check(ctx) }

// CheckNames 返回已注册检查的名称（排序后）
func (h *HealthHandler) CheckNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}
