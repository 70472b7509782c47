// Copyright (c) SpeechGate Authors.
// Licensed under the MIT License.

/*
包 speech 定义语音合成 Provider 契约以及网关可委托的具体服务商实现。

# 概述

网关本身不做语音合成，只负责把 (text, language) 交给外部服务商，
并拿回 MP3 音频流。本包屏蔽不同服务商在协议、鉴权和分片方式上的差异。

# 核心类型

  - Provider：Name、Languages、Synthesize 三个方法的统一接口。
  - LanguageSet：启动时构建一次的不可变语言集合，可并发读取。
  - GoogleTranslateProvider：Google Translate batchexecute 接口，
    文本按 100 字符切片并发拉取后按序拼接。
  - YandexProvider：SpeechKit v3 gRPC 流式合成，输出 MP3 容器。
  - InstrumentedProvider：为任意 Provider 添加 trace、OTel 计数与
    Prometheus 指标的装饰器。

# 使用方式

	p, err := speech.NewProviderFromConfig(speech.FactoryConfig{
		Provider: speech.ProviderGoogle,
		Google:   speech.DefaultGoogleConfig(),
	}, logger)
	set, err := speech.LoadLanguageSet(ctx, p)
	audio, err := p.Synthesize(ctx, "Hello", "en")
	defer audio.Close()
*/
package speech
