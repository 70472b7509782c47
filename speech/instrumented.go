package speech

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/BaSui01/speechgate/speech"

// SynthesisRecorder receives one observation per Synthesize call.
type SynthesisRecorder interface {
	RecordSynthesis(provider, language, status string, duration time.Duration)
}

// InstrumentedProvider 为任意 Provider 添加 trace span、OTel 计数器与 Prometheus 指标.
type InstrumentedProvider struct {
	inner    Provider
	recorder SynthesisRecorder
	tracer   trace.Tracer
	calls    metric.Int64Counter
	logger   *zap.Logger
}

// NewInstrumentedProvider wraps p. recorder may be nil.
func NewInstrumentedProvider(p Provider, recorder SynthesisRecorder, logger *zap.Logger) *InstrumentedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "speech"), zap.String("provider", p.Name()))

	calls, err := otel.Meter(instrumentationName).Int64Counter(
		"speech.synthesis.calls",
		metric.WithDescription("Number of synthesis calls by provider and status"),
	)
	if err != nil {
		logger.Warn("failed to create synthesis counter", zap.Error(err))
	}

	return &InstrumentedProvider{
		inner:    p,
		recorder: recorder,
		tracer:   otel.Tracer(instrumentationName),
		calls:    calls,
		logger:   logger,
	}
}

func (p *InstrumentedProvider) Name() string { return p.inner.Name() }

func (p *InstrumentedProvider) Languages(ctx context.Context) (map[string]string, error) {
	ctx, span := p.tracer.Start(ctx, "speech.languages")
	defer span.End()

	languages, err := p.inner.Languages(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("speech.languages", len(languages)))
	return languages, nil
}

func (p *InstrumentedProvider) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	ctx, span := p.tracer.Start(ctx, "speech.synthesize", trace.WithAttributes(
		attribute.String("speech.provider", p.inner.Name()),
		attribute.String("speech.language", language),
		attribute.Int("speech.text_length", len([]rune(text))),
	))
	defer span.End()

	start := time.Now()
	audio, err := p.inner.Synthesize(ctx, text, language)
	duration := time.Since(start)

	status := synthesisStatus(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("synthesis failed",
			zap.String("language", language),
			zap.String("status", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}

	if p.calls != nil {
		p.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", p.inner.Name()),
			attribute.String("status", status),
		))
	}
	if p.recorder != nil {
		p.recorder.RecordSynthesis(p.inner.Name(), language, status, duration)
	}

	return audio, err
}

// Close closes the wrapped provider if it holds resources.
func (p *InstrumentedProvider) Close() error {
	if c, ok := p.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func synthesisStatus(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
