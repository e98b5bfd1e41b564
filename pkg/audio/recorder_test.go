package audio_test

import (
	"testing"

	"github.com/MrWong99/voxtalk/pkg/audio"
)

// Capture itself needs an input device, so these tests pin the recorder's
// idle-state contract only.

func TestRecorderIdleState(t *testing.T) {
	t.Parallel()

	r := audio.NewRecorder(t.TempDir())
	if r.IsRecording() {
		t.Error("fresh recorder reports recording")
	}
	if got := r.CurrentFilePath(); got != "" {
		t.Errorf("CurrentFilePath before any recording = %q, want empty", got)
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	t.Parallel()

	r := audio.NewRecorder(t.TempDir())
	path, err := r.Stop()
	if err != nil {
		t.Fatalf("stop without start: %v", err)
	}
	if path != "" {
		t.Errorf("stop without start returned path %q", path)
	}
	if got := r.CurrentFilePath(); got != "" {
		t.Errorf("CurrentFilePath after no-op stop = %q, want empty", got)
	}
}
