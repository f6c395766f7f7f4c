// Package audio inspects encoded audio payloads without playing them.
package audio

import (
	"bytes"
	"fmt"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit stereo.
const bytesPerSample = 4

// MP3Duration returns the play time of an MP3 payload.
func MP3Duration(data []byte) (time.Duration, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode mp3: %w", err)
	}

	if decoder.SampleRate() <= 0 {
		return 0, fmt.Errorf("mp3 has no sample rate")
	}

	samples := decoder.Length() / bytesPerSample

	return time.Duration(samples) * time.Second / time.Duration(decoder.SampleRate()), nil
}
