package szprechal

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// The synthesis endpoint returns raw little-endian 16-bit PCM, mono, 24 kHz.
const (
	pcmSampleRate = 24000
	pcmChannels   = 1
	pcmBitDepth   = 16
)

// Speaker synthesizes spoken German audio.
type Speaker struct {
	client *openai.Client
}

// NewSpeaker creates a new speaker with an OpenAI client.
func NewSpeaker(apiKey string) *Speaker {
	return &Speaker{
		client: openai.NewClient(apiKey),
	}
}

// NewSpeakerWithClient creates a speaker around an existing client.
func NewSpeakerWithClient(client *openai.Client) *Speaker {
	return &Speaker{client: client}
}

// Synthesize returns playable WAV audio for the given German text. A response
// with no audio payload is a silent no-op: (nil, nil).
func (sp *Speaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	resp, err := sp.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.VoiceNova,
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio payload: %w", err)
	}
	if len(pcm) == 0 {
		return nil, nil
	}

	return pcmToWAV(pcm), nil
}

// pcmToWAV wraps raw PCM samples in a minimal WAV container so that browsers
// can play them directly.
func pcmToWAV(pcm []byte) []byte {
	const headerSize = 44
	byteRate := pcmSampleRate * pcmChannels * pcmBitDepth / 8
	blockAlign := pcmChannels * pcmBitDepth / 8

	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], pcmChannels)
	binary.LittleEndian.PutUint32(buf[24:28], pcmSampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], pcmBitDepth)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)
	return buf
}
