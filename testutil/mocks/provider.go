// MockProvider 是语音合成 Provider 的测试模拟实现。
//
// 支持固定音频、错误注入、延迟与调用记录。
package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// SynthesizeCall 记录一次 Synthesize 调用
type SynthesizeCall struct {
	Text     string
	Language string
}

// MockProvider 是 speech.Provider 的模拟实现
type MockProvider struct {
	mu sync.RWMutex

	name      string
	languages map[string]string
	audio     []byte
	err       error
	langErr   error
	delay     time.Duration

	audioFunc func(text, language string) []byte
	calls     []SynthesizeCall
}

// NewMockProvider 创建模拟 Provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name: "mock",
		languages: map[string]string{
			"en": "English",
			"fr": "French",
		},
	}
}

// WithName 设置 Provider 名称
func (m *MockProvider) WithName(name string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return m
}

// WithLanguages 设置能力列表
func (m *MockProvider) WithLanguages(languages map[string]string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages = languages
	return m
}

// WithAudio 设置固定返回的音频
func (m *MockProvider) WithAudio(audio []byte) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio = audio
	return m
}

// WithAudioFunc 按请求生成音频
func (m *MockProvider) WithAudioFunc(fn func(text, language string) []byte) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audioFunc = fn
	return m
}

// WithError 设置 Synthesize 返回的错误
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithLanguagesError 设置 Languages 返回的错误
func (m *MockProvider) WithLanguagesError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.langErr = err
	return m
}

// WithDelay 设置合成延迟（受 ctx 取消影响）
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

func (m *MockProvider) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

func (m *MockProvider) Languages(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.langErr != nil {
		return nil, m.langErr
	}
	out := make(map[string]string, len(m.languages))
	for k, v := range m.languages {
		out[k] = v
	}
	return out, nil
}

func (m *MockProvider) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.calls = append(m.calls, SynthesizeCall{Text: text, Language: language})
	delay, err, audio, fn := m.delay, m.err, m.audio, m.audioFunc
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if fn != nil {
		audio = fn(text, language)
	}
	return io.NopCloser(bytes.NewReader(audio)), nil
}

// Calls 返回调用记录副本
func (m *MockProvider) Calls() []SynthesizeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SynthesizeCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}
