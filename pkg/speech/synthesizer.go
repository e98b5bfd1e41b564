package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ttsEndpoint = "/api/tts"

// WAVPlayer plays a WAV file through the speakers.
type WAVPlayer interface {
	Play(path string) error
}

// SynthesizerOption is a functional option for configuring a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithVoice sets the speaker id passed to the TTS server.
func WithVoice(voice string) SynthesizerOption {
	return func(s *Synthesizer) { s.voice = voice }
}

// WithSynthesizerHTTPClient replaces the HTTP client used for requests.
func WithSynthesizerHTTPClient(c *http.Client) SynthesizerOption {
	return func(s *Synthesizer) { s.httpClient = c }
}

// Synthesizer speaks text through a Coqui-style TTS server. Synthesis and
// playback run on their own goroutine so the shell never blocks on voice
// output.
type Synthesizer struct {
	serverURL  string
	voice      string
	scratchDir string
	player     WAVPlayer
	httpClient *http.Client
}

// NewSynthesizer creates a Synthesizer that writes synthesized audio under
// scratchDir and plays it via player.
func NewSynthesizer(serverURL, scratchDir string, player WAVPlayer, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		serverURL:  strings.TrimRight(serverURL, "/"),
		scratchDir: scratchDir,
		player:     player,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak schedules text for synthesis and playback and returns immediately.
// The returned flag reports only whether the work was accepted (non-blank
// text); synthesis or playback failures are logged on the worker goroutine.
func (s *Synthesizer) Speak(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	go func() {
		path, err := s.synthesize(context.Background(), text)
		if err != nil {
			slog.Warn("speech synthesis failed", "err", err)
			return
		}
		if err := s.player.Play(path); err != nil {
			slog.Warn("speech playback failed", "path", path, "err", err)
		}
	}()
	return true
}

// synthesize requests audio for text and writes it to a scratch WAV file,
// returning the file path.
func (s *Synthesizer) synthesize(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("text", text)
	if s.voice != "" {
		params.Set("speaker_id", s.voice)
	}

	reqURL := s.serverURL + ttsEndpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("speech: create tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/wav")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: GET %s: %w", ttsEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: GET %s returned status %d", ttsEndpoint, resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("speech: read WAV response: %w", err)
	}

	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("speech: create scratch dir: %w", err)
	}
	path := filepath.Join(s.scratchDir, "tts_"+uuid.NewString()+".wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("speech: write synthesized audio: %w", err)
	}
	return path, nil
}
