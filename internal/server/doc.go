// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。网关同时运行 API 与 metrics 两个服务器，
WaitForShutdown 负责协调二者的停机。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Shutdown/Errors 等生命周期方法。
  - Config：服务器配置，包含监听地址、读写超时、空闲超时、
    最大请求头大小与优雅关闭超时。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空，
    进行中的合成请求会正常写完响应并清理临时文件。
  - 停机协调：WaitForShutdown 监听 SIGINT/SIGTERM、ctx 取消或
    任一服务器异常退出，然后并发关闭所有服务器。
  - 状态查询：IsRunning/Addr/Name 提供运行状态与实际监听地址。
*/
package server
