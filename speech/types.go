package speech

import (
	"context"
	"errors"
	"io"
)

// MIMETypeMP3 is the media type of every artifact a Provider produces.
const MIMETypeMP3 = "audio/mpeg"

// ErrNoSpeakableText is returned by providers when the input contains
// nothing but whitespace and punctuation.
var ErrNoSpeakableText = errors.New("no text to speak")

// Provider is an external speech synthesis service.
type Provider interface {
	// Name returns the provider identifier (for logging/metrics).
	Name() string

	// Languages returns the provider capability list: language code to
	// human-readable name.
	Languages(ctx context.Context) (map[string]string, error)

	// Synthesize converts text to MP3 audio. The caller closes the reader.
	Synthesize(ctx context.Context, text, language string) (io.ReadCloser, error)
}

// Language is one entry of a LanguageSet.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
