package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Player plays WAV files through the default output device. Playback is
// blocking; callers wanting fire-and-forget run Play on their own
// goroutine.
type Player struct{}

// NewPlayer creates a Player.
func NewPlayer() *Player { return &Player{} }

// Play decodes the WAV file at path and writes it to the default output
// stream, returning when playback completes.
func (p *Player) Play(path string) error {
	samples, format, err := ReadWAV(path)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	channels := NumChannels
	rate := SampleRate
	if format != nil {
		if format.NumChannels > 0 {
			channels = format.NumChannels
		}
		if format.SampleRate > 0 {
			rate = format.SampleRate
		}
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, 1024*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), len(out)/channels, &out)
	if err != nil {
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += len(out) {
		n := copy(out, samples[off:])
		for i := n; i < len(out); i++ {
			out[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("audio: write output stream: %w", err)
		}
	}
	return nil
}
