package audio_test

import (
	"path/filepath"
	"testing"

	"github.com/MrWong99/voxtalk/pkg/audio"
)

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 100, -100, 32767, -32768, 42}
	path := filepath.Join(t.TempDir(), "out.wav")

	if err := audio.WriteWAV(path, samples, audio.SampleRate, audio.NumChannels); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, format, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if format.SampleRate != audio.SampleRate || format.NumChannels != audio.NumChannels {
		t.Errorf("format = %+v", format)
	}
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestWriteWAVEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := audio.WriteWAV(path, nil, audio.SampleRate, audio.NumChannels); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	got, _, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("read empty: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d samples from empty file", len(got))
	}
}

func TestReadWAVMissingFile(t *testing.T) {
	t.Parallel()

	if _, _, err := audio.ReadWAV(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
