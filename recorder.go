package szprechal

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// AudioSource is an exclusive handle on an audio input device. Start begins
// capture and returns a channel of audio chunks; the channel is closed when
// capture ends. Stop releases the device.
type AudioSource interface {
	Start(ctx context.Context) (<-chan []byte, error)
	Stop() error
}

// Recorder runs one capture as a linear pipeline: acquire the device,
// accumulate chunks, assemble the clip, release the device on every exit
// path. An optional tick callback reports elapsed whole seconds.
type Recorder struct {
	src    AudioSource
	onTick func(seconds int)
}

// NewRecorder creates a recorder over the given audio source.
func NewRecorder(src AudioSource) *Recorder {
	return &Recorder{src: src}
}

// OnTick registers a callback invoked once per elapsed second of recording.
func (r *Recorder) OnTick(fn func(seconds int)) {
	r.onTick = fn
}

// Record captures audio until the source closes its chunk channel or the
// context is cancelled, and returns the assembled clip.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	chunks, err := r.src.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire audio device: %w", err)
	}
	defer r.src.Stop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var clip bytes.Buffer
	seconds := 0
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return clip.Bytes(), nil
			}
			clip.Write(chunk)
		case <-ticker.C:
			seconds++
			if r.onTick != nil {
				r.onTick(seconds)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// EncodeClip encodes a recorded clip for transmission to the grading call.
func EncodeClip(clip []byte) string {
	return base64.StdEncoding.EncodeToString(clip)
}

// DecodeClip reverses EncodeClip.
func DecodeClip(encoded string) ([]byte, error) {
	clip, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode clip: %w", err)
	}
	return clip, nil
}
