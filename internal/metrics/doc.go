// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP 与语音合成两大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 合成指标：服务商调用次数与耗时（provider/language/status）、
    已返回音频字节数、合成前被拒绝的请求（按错误码）。
  - WatchGauge：采集时取值的 Gauge，用于工作池队列长度、
    活跃 worker 数与磁盘上的临时音频文件数。
*/
package metrics
