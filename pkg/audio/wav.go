// Package audio provides microphone capture and WAV playback for the chat
// shell. Capture runs at 16 kHz mono 16-bit, the format the speech
// recognizer and the voice model expect.
package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// SampleRate is the capture rate in Hz.
	SampleRate = 16000

	// NumChannels is the capture channel count (mono).
	NumChannels = 1

	bitDepth = 16
)

// WriteWAV writes int16 PCM samples to path as a 16-bit WAV file.
func WriteWAV(path string, samples []int16, rate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize %s: %w", path, err)
	}
	return nil
}

// ReadWAV decodes a WAV file into int16 PCM samples plus its format.
func ReadWAV(path string) ([]int16, *gaudio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}
	return samples, buf.Format, nil
}
