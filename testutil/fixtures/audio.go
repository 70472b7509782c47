// Package fixtures 提供测试用的音频与服务商响应样本。
package fixtures

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// MPEG-1 Layer III, 128 kbps, 44.1 kHz, mono, no CRC.
var silentFrameHeader = []byte{0xFF, 0xFB, 0x90, 0xC4}

// silentFrameSize = 144 * 128000 / 44100 (no padding).
const silentFrameSize = 417

// SilentMP3 returns n silent MPEG audio frames. Decoders accept the result
// as a valid MP3 stream.
func SilentMP3(n int) []byte {
	if n <= 0 {
		n = 1
	}
	frame := make([]byte, silentFrameSize)
	copy(frame, silentFrameHeader)
	return bytes.Repeat(frame, n)
}

// BatchExecuteResponse wraps audio the way the Google Translate
// batchexecute endpoint does.
func BatchExecuteResponse(audio []byte) string {
	payload := base64.StdEncoding.EncodeToString(audio)
	return fmt.Sprintf(")]}'\n\n%d\n[[\"wrb.fr\",\"jQ1olc\",\"[\\\"%s\\\"]\",null,null,null,\"generic\"]]\n55\n[[\"di\",42],[\"af.httprm\",41,\"-1\",7]]\n25\n[[\"e\",4,null,null,120]]\n",
		len(payload)+64, payload)
}
