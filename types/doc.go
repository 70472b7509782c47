// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
Package types 提供 SpeechGate 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 api、speech 等上层模块
提供统一的错误契约与 Context 传播工具。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - Context 传播：WithTraceID / WithRequestID
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
  - 常用错误构造：NewInvalidRequestError / NewUnsupportedLanguageError /
    NewSynthesisError / NewTimeoutError
*/
package types
