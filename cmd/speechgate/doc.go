// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
Package main 提供 SpeechGate 服务端程序入口。

# 概述

cmd/speechgate 是文本转语音网关的可执行入口，提供 HTTP API 服务、
语言列表、健康检查和版本查询等子命令。程序支持 YAML 配置文件与 .env
文件加载、结构化日志（zap）、Prometheus 指标采集以及 OpenTelemetry 追踪。

# 核心类型

  - Server        — 主服务器，管理 API、Metrics 双端口、合成组件及优雅关闭
  - Middleware    — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - statusWriter  — 包装 http.ResponseWriter 以捕获状态码与响应大小

# 主要能力

  - 子命令：serve（启动服务）、languages（列出语言）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    MetricsMiddleware、OTelTracing、CORS（单一来源 + 凭据）、MaxBody
  - 启动时一次性构建语言集合，失败则拒绝启动
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭 HTTP → 等待合成任务 → 关闭 Provider → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
