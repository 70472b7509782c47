package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/BaSui01/speechgate/internal/tlsutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	googleRPCID     = "jQ1olc"
	googleUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	googleReferer   = "http://translate.google.com/"
)

var googleAudioPattern = regexp.MustCompile(`jQ1olc","\[\\"([A-Za-z0-9+/=]*)\\"\]`)

// GoogleTranslateProvider 通过 Google Translate 的 batchexecute 端点合成语音.
type GoogleTranslateProvider struct {
	cfg    GoogleConfig
	client *http.Client
	logger *zap.Logger
}

// NewGoogleTranslateProvider creates a new Google Translate TTS provider.
func NewGoogleTranslateProvider(cfg GoogleConfig, logger *zap.Logger) *GoogleTranslateProvider {
	if cfg.TLD == "" {
		cfg.TLD = "com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ChunkConcurrency <= 0 {
		cfg.ChunkConcurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GoogleTranslateProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "google_tts")),
	}
}

func (p *GoogleTranslateProvider) Name() string { return "google" }

// Languages returns the built-in capability table.
func (p *GoogleTranslateProvider) Languages(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(googleLanguages))
	for code, name := range googleLanguages {
		out[code] = name
	}
	return out, nil
}

// Synthesize splits text into chunks, fetches them concurrently and
// concatenates the MP3 segments in order.
func (p *GoogleTranslateProvider) Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error) {
	chunks := splitText(text, googleMaxChunk)
	if len(chunks) == 0 {
		return nil, ErrNoSpeakableText
	}

	parts := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.ChunkConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			audio, err := p.fetchChunk(gctx, chunk, language)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			parts[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Debug("synthesized",
		zap.String("language", language),
		zap.Int("chunks", len(chunks)),
	)

	return io.NopCloser(bytes.NewReader(bytes.Join(parts, nil))), nil
}

func (p *GoogleTranslateProvider) endpoint() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	return fmt.Sprintf("https://translate.google.%s/_/TranslateWebserverUi/data/batchexecute", p.cfg.TLD)
}

func (p *GoogleTranslateProvider) fetchChunk(ctx context.Context, text, language string) ([]byte, error) {
	body, err := p.packageRPC(text, language)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Referer", googleReferer)
	httpReq.Header.Set("User-Agent", googleUserAgent)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google tts error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	return extractAudio(resp.Body)
}

// packageRPC builds the form body: f.req=<escaped rpc>&
func (p *GoogleTranslateProvider) packageRPC(text, language string) (string, error) {
	var slow any
	if p.cfg.Slow {
		slow = true
	}
	params, err := json.Marshal([]any{text, language, slow, "null"})
	if err != nil {
		return "", fmt.Errorf("marshal rpc params: %w", err)
	}
	rpc, err := json.Marshal([][][]any{{{googleRPCID, string(params), nil, "generic"}}})
	if err != nil {
		return "", fmt.Errorf("marshal rpc: %w", err)
	}
	return "f.req=" + url.QueryEscape(string(rpc)) + "&", nil
}

// extractAudio scans the batchexecute response for the jQ1olc line and
// decodes its base64 payload.
func extractAudio(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var audio []byte
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, []byte(googleRPCID)) {
			continue
		}
		m := googleAudioPattern.FindSubmatch(line)
		if m == nil {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(string(m[1]))
		if err != nil {
			return nil, fmt.Errorf("decode audio payload: %w", err)
		}
		audio = append(audio, decoded...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("google tts returned no audio")
	}
	return audio, nil
}
