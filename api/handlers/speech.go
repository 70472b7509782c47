package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BaSui01/speechgate/api"
	"github.com/BaSui01/speechgate/internal/artifact"
	"github.com/BaSui01/speechgate/internal/pool"
	"github.com/BaSui01/speechgate/speech"
	"github.com/BaSui01/speechgate/types"
	"go.uber.org/zap"
)

// downloadName 是响应中 Content-Disposition 的文件名
const downloadName = "tts.mp3"

// =============================================================================
// 🔊 语音合成 Handler
// =============================================================================

// SpeechConfig 控制合成端点的行为。
type SpeechConfig struct {
	DefaultLanguage string
	Timeout         time.Duration
	// MaxTextLength 按 rune 计数，0 表示不限制
	MaxTextLength int
}

// SpeechRecorder 记录响应层面的指标，可以为 nil。
type SpeechRecorder interface {
	RecordAudioBytes(provider string, n int64)
	RecordRejected(code string)
}

// SpeechHandler 处理 /api/text-to-speech 与 /api/languages。
type SpeechHandler struct {
	provider  speech.Provider
	languages speech.LanguageSet
	store     *artifact.Store
	pool      *pool.GoroutinePool
	cfg       SpeechConfig
	recorder  SpeechRecorder
	logger    *zap.Logger
}

// NewSpeechHandler 创建语音合成处理器。languages 在启动时构建一次，之后只读。
func NewSpeechHandler(
	provider speech.Provider,
	languages speech.LanguageSet,
	store *artifact.Store,
	workers *pool.GoroutinePool,
	cfg SpeechConfig,
	recorder SpeechRecorder,
	logger *zap.Logger,
) *SpeechHandler {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	return &SpeechHandler{
		provider:  provider,
		languages: languages,
		store:     store,
		pool:      workers,
		cfg:       cfg,
		recorder:  recorder,
		logger:    logger.With(zap.String("component", "speech_handler")),
	}
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleTextToSpeech 处理 POST /api/text-to-speech
// @Summary 文本转语音
// @Description 校验语言后调用合成服务，返回 MP3 音频
// @Tags 语音
// @Accept json
// @Produce audio/mpeg
// @Param request body api.TextToSpeechRequest true "合成请求"
// @Success 200 {file} binary "MP3 音频"
// @Failure 400 {object} Response "语言不支持、文本为空或 JSON 无效"
// @Failure 413 {object} Response "文本过长"
// @Failure 500 {object} Response "合成失败"
// @Failure 504 {object} Response "合成超时"
// @Router /api/text-to-speech [post]
func (h *SpeechHandler) HandleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.reject(w, r, types.NewError(types.ErrMethodNotAllowed, "method not allowed"))
		return
	}

	var req api.TextToSpeechRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		h.recordRejected(types.GetErrorCode(err))
		return
	}

	text := req.TextOrDefault()
	language := req.LanguageOrDefault(h.cfg.DefaultLanguage)

	// 语言校验必须先于任何合成工作
	if apiErr := h.validate(text, language); apiErr != nil {
		h.reject(w, r, apiErr)
		return
	}

	art, err := h.synthesize(r.Context(), text, language)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Debug("client went away before synthesis finished",
				zap.String("language", language),
				zap.String("request_id", requestID(r)),
				zap.Error(err),
			)
			return
		}
		h.reject(w, r, h.classify(err))
		return
	}
	defer art.Release()

	header := w.Header()
	header.Set("Content-Type", speech.MIMETypeMP3)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": downloadName}))
	header.Set("Cache-Control", "no-store")
	http.ServeContent(w, r, downloadName, time.Time{}, art)

	if h.recorder != nil {
		h.recorder.RecordAudioBytes(h.provider.Name(), art.Size())
	}
	h.logger.Debug("audio served",
		zap.String("language", language),
		zap.Int64("bytes", art.Size()),
		zap.String("request_id", requestID(r)),
	)
}

// HandleLanguages 处理 GET /api/languages
// @Summary 支持的语言
// @Description 返回合成服务支持的语言列表（按代码排序）
// @Tags 语音
// @Produce json
// @Success 200 {object} Response{data=api.LanguagesResponse} "语言列表"
// @Router /api/languages [get]
func (h *SpeechHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.reject(w, r, types.NewError(types.ErrMethodNotAllowed, "method not allowed"))
		return
	}

	langs := h.languages.Languages()
	resp := api.LanguagesResponse{
		Provider:  h.provider.Name(),
		Default:   h.cfg.DefaultLanguage,
		Count:     len(langs),
		Languages: make([]api.Language, 0, len(langs)),
	}
	for _, l := range langs {
		resp.Languages = append(resp.Languages, api.Language{Code: l.Code, Name: l.Name})
	}

	WriteSuccess(w, r, resp)
}

// =============================================================================
// 🔧 内部实现
// =============================================================================

func (h *SpeechHandler) validate(text, language string) *types.Error {
	if !h.languages.Contains(language) {
		return types.NewUnsupportedLanguageError(language)
	}
	if strings.TrimSpace(text) == "" {
		return types.NewError(types.ErrEmptyText, "No text to speak")
	}
	if h.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > h.cfg.MaxTextLength {
		return types.NewError(types.ErrTextTooLong,
			fmt.Sprintf("text exceeds %d characters", h.cfg.MaxTextLength))
	}
	return nil
}

// handoff 把任务产出的 artifact 交给 handler。
// handler 放弃等待后，迟到的 artifact 由任务自己释放。
type handoff struct {
	mu        sync.Mutex
	art       *artifact.Artifact
	abandoned bool
}

func (h *SpeechHandler) synthesize(ctx context.Context, text, language string) (*artifact.Artifact, error) {
	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	var ho handoff
	err := h.pool.SubmitWait(ctx, func(ctx context.Context) error {
		stream, err := h.provider.Synthesize(ctx, text, language)
		if err != nil {
			return err
		}
		defer stream.Close()

		art, err := h.store.Stage(stream)
		if err != nil {
			return err
		}

		ho.mu.Lock()
		defer ho.mu.Unlock()
		if ho.abandoned {
			art.Release()
			return context.Cause(ctx)
		}
		ho.art = art
		return nil
	})

	ho.mu.Lock()
	art := ho.art
	ho.abandoned = true
	ho.mu.Unlock()

	if art != nil {
		return art, nil
	}
	// gRPC 等传输层把超时包装成自己的错误，这里以 ctx 为准
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return nil, err
}

func (h *SpeechHandler) classify(err error) *types.Error {
	provider := h.provider.Name()
	switch {
	case errors.Is(err, speech.ErrNoSpeakableText):
		return types.NewError(types.ErrEmptyText, "No text to speak").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewTimeoutError(provider, err)
	case errors.Is(err, pool.ErrPoolClosed):
		return types.NewError(types.ErrProviderUnavailable, "synthesis is unavailable").
			WithCause(err).
			WithProvider(provider)
	case errors.Is(err, pool.ErrTaskPanicked):
		return types.NewError(types.ErrInternalError, "internal error").WithCause(err)
	default:
		return types.NewSynthesisError(provider, err)
	}
}

func (h *SpeechHandler) reject(w http.ResponseWriter, r *http.Request, err *types.Error) {
	h.recordRejected(err.Code)
	WriteError(w, r, err, h.logger)
}

func (h *SpeechHandler) recordRejected(code types.ErrorCode) {
	if h.recorder != nil && code != "" {
		h.recorder.RecordRejected(string(code))
	}
}
