package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/speechgate/testutil"
	"github.com/BaSui01/speechgate/testutil/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcCall struct {
	Text     string
	Language string
	Slow     any
}

// decodeRPC reverses packageRPC on the server side.
func decodeRPC(t *testing.T, r *http.Request) rpcCall {
	t.Helper()
	require.NoError(t, r.ParseForm())

	var envelope [][][]any
	require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("f.req")), &envelope))
	require.Equal(t, googleRPCID, envelope[0][0][0])
	require.Equal(t, "generic", envelope[0][0][3])

	var params []any
	require.NoError(t, json.Unmarshal([]byte(envelope[0][0][1].(string)), &params))
	require.Len(t, params, 4)
	return rpcCall{Text: params[0].(string), Language: params[1].(string), Slow: params[2]}
}

func newGoogleTestProvider(t *testing.T, handler http.HandlerFunc, mutate ...func(*GoogleConfig)) *GoogleTranslateProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultGoogleConfig()
	cfg.BaseURL = srv.URL
	for _, m := range mutate {
		m(&cfg)
	}
	return NewGoogleTranslateProvider(cfg, nil)
}

func TestGoogleTranslateProvider_Synthesize(t *testing.T) {
	audio := fixtures.SilentMP3(2)
	calls := make(chan rpcCall, 1)

	p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, googleReferer, r.Header.Get("Referer"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		calls <- decodeRPC(t, r)
		_, _ = io.WriteString(w, fixtures.BatchExecuteResponse(audio))
	})

	rc, err := p.Synthesize(testutil.TestContext(t), "Hello world", "en")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, audio, data)
	assert.Equal(t, rpcCall{Text: "Hello world", Language: "en", Slow: nil}, <-calls)
}

func TestGoogleTranslateProvider_SlowFlag(t *testing.T) {
	calls := make(chan rpcCall, 1)
	p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls <- decodeRPC(t, r)
		_, _ = io.WriteString(w, fixtures.BatchExecuteResponse(fixtures.SilentMP3(1)))
	}, func(c *GoogleConfig) { c.Slow = true })

	rc, err := p.Synthesize(testutil.TestContext(t), "slowly", "fr")
	require.NoError(t, err)
	rc.Close()
	got := <-calls
	assert.Equal(t, true, got.Slow)
	assert.Equal(t, "fr", got.Language)
}

func TestGoogleTranslateProvider_ChunksConcatenatedInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		call := decodeRPC(t, r)
		mu.Lock()
		texts = append(texts, call.Text)
		mu.Unlock()
		// later chunks answer first
		if strings.HasPrefix(call.Text, "First") {
			time.Sleep(30 * time.Millisecond)
		}
		_, _ = io.WriteString(w, fixtures.BatchExecuteResponse([]byte("["+call.Text+"]")))
	})

	first := "First " + strings.Repeat("alpha ", 15) + "end."
	second := "Second " + strings.Repeat("beta ", 17) + "end."
	third := "Third " + strings.Repeat("gamma ", 14) + "end."
	text := first + " " + second + " " + third

	chunks := splitText(text, googleMaxChunk)
	require.Len(t, chunks, 3)

	rc, err := p.Synthesize(testutil.TestContext(t), text, "en")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()

	assert.Equal(t, "["+chunks[0]+"]["+chunks[1]+"]["+chunks[2]+"]", string(data))
	mu.Lock()
	assert.Len(t, texts, 3)
	mu.Unlock()
}

func TestGoogleTranslateProvider_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota", http.StatusTooManyRequests)
		})
		_, err := p.Synthesize(testutil.TestContext(t), "hi", "en")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=429")
	})

	t.Run("no audio line", func(t *testing.T) {
		p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, ")]}'\n\n[[\"wrb.fr\",\"other\",null]]\n")
		})
		_, err := p.Synthesize(testutil.TestContext(t), "hi", "en")
		assert.ErrorContains(t, err, "no audio")
	})

	t.Run("nothing to speak", func(t *testing.T) {
		calls := 0
		p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) { calls++ })
		_, err := p.Synthesize(testutil.TestContext(t), " ... ", "en")
		assert.ErrorIs(t, err, ErrNoSpeakableText)
		assert.Zero(t, calls)
	})

	t.Run("context deadline", func(t *testing.T) {
		p := newGoogleTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := p.Synthesize(ctx, "hi", "en")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestGoogleTranslateProvider_Endpoint(t *testing.T) {
	p := NewGoogleTranslateProvider(GoogleConfig{TLD: "co.uk"}, nil)
	assert.Equal(t, "https://translate.google.co.uk/_/TranslateWebserverUi/data/batchexecute", p.endpoint())
	assert.Equal(t, "google", p.Name())
}

func TestExtractAudio(t *testing.T) {
	data, err := extractAudio(strings.NewReader(fixtures.BatchExecuteResponse([]byte("abc"))))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = extractAudio(strings.NewReader(fmt.Sprintf("%s\n", `[["wrb.fr","jQ1olc","[\"!!notbase64\"]"]]`)))
	assert.Error(t, err)
}
