// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 SpeechGate HTTP API 的请求处理器实现。

# 概述

handlers 包实现语音合成、语言列表与健康检查端点，以及统一的
JSON 响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - SpeechHandler  — POST /api/text-to-speech 与 GET /api/languages
  - HealthHandler  — /health、/healthz、/ready、/version
  - Response       — 统一 JSON 响应结构，出错时附带顶层 detail
  - ErrorInfo      — 结构化错误信息，含 code、message、retryable
  - HealthCheck    — 可插拔就绪检查接口，CheckFunc 为函数适配器

# 合成流程

请求体解码后先补默认值（language 缺省为 "en"），再校验语言与文本，
校验通过才把合成任务提交到工作池。任务产出的 MP3 暂存在请求私有的
临时文件中，通过 http.ServeContent 返回，响应结束后立即删除。
*/
package handlers
