// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 SpeechGate 测试的共享工具和辅助函数。

# 概述

testutil 包为各包单元测试提供统一的辅助能力，避免重复实现相似的
测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 断言工具: AssertJSONEqual / AssertNoError / AssertError / AssertContains
  - 异步断言: AssertEventuallyTrue / AssertEventuallyEqual
  - 文件辅助: ListFiles / AssertDirEmpty，用于检查临时音频是否清理
  - 子包 fixtures: SilentMP3 生成可解码的静音 MP3 帧，
    BatchExecuteResponse 构造 Google Translate 响应样本
  - 子包 mocks: MockProvider 模拟语音合成服务商
*/
package testutil
