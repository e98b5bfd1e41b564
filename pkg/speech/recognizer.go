// Package speech bridges the chat shell to local speech HTTP servers: a
// whisper-style recognizer (POST /inference, multipart WAV upload) and a
// Coqui-style synthesizer (GET /api/tts). Both collaborate over plain HTTP
// so no inference engine is linked into the binary.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	inferenceEndpoint = "/inference"

	// notRecognized is returned when every configured language yields an
	// empty transcript. It is user-facing text, not an error.
	notRecognized = "无法识别语音"
)

// RecognizerOption is a functional option for configuring a Recognizer.
type RecognizerOption func(*Recognizer)

// WithRecognizerHTTPClient replaces the HTTP client used for requests.
func WithRecognizerHTTPClient(c *http.Client) RecognizerOption {
	return func(r *Recognizer) { r.httpClient = c }
}

// Recognizer transcribes recorded WAV clips via a local whisper-style
// inference server. One request is issued per configured language in order;
// the first non-empty transcript wins.
type Recognizer struct {
	serverURL  string
	languages  []string
	httpClient *http.Client
}

// NewRecognizer creates a Recognizer. languages are tried in order per
// transcription; when empty, a single request without a language hint is
// issued.
func NewRecognizer(serverURL string, languages []string, opts ...RecognizerOption) *Recognizer {
	r := &Recognizer{
		serverURL:  strings.TrimRight(serverURL, "/"),
		languages:  languages,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Transcribe uploads the WAV file at path once per configured language and
// returns the first non-empty transcript. It never returns a Go error: an
// unreadable clip, a failing server, and an exhausted language chain all
// yield the fixed not-recognized text.
func (r *Recognizer) Transcribe(ctx context.Context, path string) string {
	clip, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read recording", "path", path, "err", err)
		return notRecognized
	}

	langs := r.languages
	if len(langs) == 0 {
		langs = []string{""}
	}
	for _, lang := range langs {
		text, err := r.infer(ctx, clip, lang)
		if err != nil {
			slog.Warn("transcription attempt failed", "language", lang, "err", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return notRecognized
}

// infer POSTs the clip to the inference endpoint as multipart/form-data with
// an optional language hint and returns the transcribed text.
func (r *Recognizer) infer(ctx context.Context, clip []byte, language string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("speech: create form file: %w", err)
	}
	if _, err := fw.Write(clip); err != nil {
		return "", fmt.Errorf("speech: write wav data: %w", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return "", fmt.Errorf("speech: write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("speech: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+inferenceEndpoint, &body)
	if err != nil {
		return "", fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: inference server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("speech: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("speech: parse JSON response: %w", err)
	}
	return result.Text, nil
}
