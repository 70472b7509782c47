package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/BaSui01/speechgate/internal/tlsutil"
	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// YandexProvider 通过 SpeechKit v3 UtteranceSynthesis 流式合成 MP3.
type YandexProvider struct {
	cfg    YandexConfig
	conn   *grpc.ClientConn
	client tts.SynthesizerClient
	voices map[string]string
	logger *zap.Logger
}

// NewYandexProvider dials the SpeechKit endpoint. The connection is lazy;
// no network traffic happens until the first call.
func NewYandexProvider(cfg YandexConfig, logger *zap.Logger, opts ...grpc.DialOption) (*YandexProvider, error) {
	if cfg.APIKey == "" || cfg.FolderID == "" {
		return nil, fmt.Errorf("yandex provider requires api_key and folder_id")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultYandexConfig().Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultYandexConfig().Model
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	creds := tlsutil.GRPCCredentials()
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(cfg.Endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Endpoint, err)
	}

	voices := make(map[string]string, len(defaultYandexVoices)+len(cfg.Voices))
	for lang, voice := range defaultYandexVoices {
		voices[lang] = voice
	}
	for lang, voice := range cfg.Voices {
		voices[lang] = voice
	}

	return &YandexProvider{
		cfg:    cfg,
		conn:   conn,
		client: tts.NewSynthesizerClient(conn),
		voices: voices,
		logger: logger.With(zap.String("component", "yandex_tts")),
	}, nil
}

func (p *YandexProvider) Name() string { return "yandex" }

// Languages returns every language that has a voice.
func (p *YandexProvider) Languages(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(p.voices))
	for lang := range p.voices {
		name, ok := yandexLanguageNames[lang]
		if !ok {
			name = lang
		}
		out[lang] = name
	}
	return out, nil
}

// Synthesize opens the server stream and returns a reader over the audio
// chunks. Closing the reader cancels the stream.
func (p *YandexProvider) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	voice, ok := p.voices[language]
	if !ok {
		return nil, fmt.Errorf("no yandex voice for language %q", language)
	}
	if !speakable(text) {
		return nil, ErrNoSpeakableText
	}

	ctx, cancel := context.WithCancel(ctx)
	ctx = metadata.AppendToOutgoingContext(ctx,
		"authorization", "Api-Key "+p.cfg.APIKey,
		"x-folder-id", p.cfg.FolderID,
	)

	stream, err := p.client.UtteranceSynthesis(ctx, p.buildRequest(text, voice))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start synthesis: %w", err)
	}

	// 先读取首个分片，使鉴权/参数错误在返回前暴露
	first, err := stream.Recv()
	if err != nil {
		cancel()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("yandex tts returned no audio")
		}
		return nil, fmt.Errorf("failed to receive audio data: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		resp := first
		for {
			if chunk := resp.GetAudioChunk(); chunk != nil {
				if _, werr := pw.Write(chunk.GetData()); werr != nil {
					return
				}
			}
			var rerr error
			resp, rerr = stream.Recv()
			if errors.Is(rerr, io.EOF) {
				pw.Close()
				return
			}
			if rerr != nil {
				pw.CloseWithError(fmt.Errorf("failed to receive audio data: %w", rerr))
				return
			}
		}
	}()

	return &streamReader{PipeReader: pr, cancel: cancel}, nil
}

func (p *YandexProvider) buildRequest(text, voice string) *tts.UtteranceSynthesisRequest {
	req := &tts.UtteranceSynthesisRequest{}
	req.SetModel(p.cfg.Model)
	req.SetText(text)

	voiceHint := &tts.Hints{}
	voiceHint.SetVoice(voice)
	req.SetHints([]*tts.Hints{voiceHint})

	containerAudio := &tts.ContainerAudio{}
	containerAudio.SetContainerAudioType(tts.ContainerAudio_MP3)
	audioSpec := &tts.AudioFormatOptions{}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	req.SetLoudnessNormalizationType(tts.UtteranceSynthesisRequest_LUFS)
	return req
}

// Close releases the gRPC connection.
func (p *YandexProvider) Close() error {
	return p.conn.Close()
}

type streamReader struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (r *streamReader) Close() error {
	r.cancel()
	return r.PipeReader.Close()
}
