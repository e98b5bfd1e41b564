package audio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
)

// Recorder captures microphone audio to a WAV file in the scratch
// directory. Start launches a capture goroutine; Stop drains it and flushes
// the samples. Both are idempotent. Safe for concurrent use.
type Recorder struct {
	scratchDir string
	notify     bool

	mu        sync.Mutex
	recording bool
	stop      chan struct{}
	done      chan struct{}
	samples   []int16
	filePath  string
}

// RecorderOption is a functional option for configuring a Recorder.
type RecorderOption func(*Recorder)

// WithNotifications enables a desktop notification when recording starts
// and stops.
func WithNotifications() RecorderOption {
	return func(r *Recorder) { r.notify = true }
}

// NewRecorder creates a Recorder that stores recordings under scratchDir.
func NewRecorder(scratchDir string, opts ...RecorderOption) *Recorder {
	r := &Recorder{scratchDir: scratchDir}
	for _, o := range opts {
		o(r)
	}
	return r
}

// IsRecording reports whether a capture is in flight.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// CurrentFilePath returns the path the most recent recording was (or will
// be) written to. Empty before the first recording.
func (r *Recorder) CurrentFilePath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filePath
}

// Start begins capturing from the default input device. Calling Start while
// a capture is already in flight is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = true
	r.samples = nil
	r.filePath = filepath.Join(r.scratchDir, "rec_"+uuid.NewString()+".wav")
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done := r.stop, r.done
	r.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("audio: portaudio init: %w", err)
	}

	in := make([]int16, 1024)
	stream, err := portaudio.OpenDefaultStream(NumChannels, 0, float64(SampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("audio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return fmt.Errorf("audio: start input stream: %w", err)
	}

	if r.notify {
		_ = beeep.Notify("voxtalk", "Recording started", "")
	}

	go func() {
		defer close(done)
		defer portaudio.Terminate()
		defer stream.Close()
		defer stream.Stop()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := stream.Read(); err != nil {
				slog.Warn("input stream read failed", "err", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			chunk := make([]int16, len(in))
			copy(chunk, in)
			r.mu.Lock()
			r.samples = append(r.samples, chunk...)
			r.mu.Unlock()
		}
	}()
	return nil
}

// Stop ends the capture and writes the collected samples to the recording
// file, returning its path. Calling Stop when nothing is recording returns
// an empty path and no error.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return "", nil
	}
	r.recording = false
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	<-done

	r.mu.Lock()
	samples, path := r.samples, r.filePath
	r.samples = nil
	r.mu.Unlock()

	if r.notify {
		_ = beeep.Notify("voxtalk", "Recording stopped", "")
	}

	if err := WriteWAV(path, samples, SampleRate, NumChannels); err != nil {
		return "", err
	}
	return path, nil
}
