// Package audio 校验服务商返回的音频流。
package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmptyStream is returned when the stream has no bytes at all.
var ErrEmptyStream = errors.New("audio stream is empty")

// Info describes a probed MP3 stream.
type Info struct {
	SampleRate int
}

// ProbeMP3 decodes the first MPEG frame of r. It fails when r is empty or
// does not start with a decodable frame (an ID3v2 tag is skipped).
func ProbeMP3(r io.Reader) (Info, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return Info{}, ErrEmptyStream
		}
		return Info{}, fmt.Errorf("read audio: %w", err)
	}

	// hide io.Seeker so the decoder does not scan the whole stream
	dec, err := mp3.NewDecoder(struct{ io.Reader }{br})
	if err != nil {
		return Info{}, fmt.Errorf("invalid mp3 stream: %w", err)
	}
	return Info{SampleRate: dec.SampleRate()}, nil
}
