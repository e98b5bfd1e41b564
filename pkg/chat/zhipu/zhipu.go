// Package zhipu provides a chat.Provider backed by the Zhipu GLM
// chat-completion API.
//
// Two request shapes are produced depending on the selected model. Text
// models (glm-4, glm-3-turbo) send plain {role, content} messages. The
// glm-4-voice model uses the GLM voice encoding: user turns may carry a
// base64 input_audio part alongside their text, and spoken assistant turns
// are referenced by their provider-issued audio id instead of resending
// audio. See encode.go for the full turn-encoding policy.
//
// Per the chat.Provider contract every failure is reported in-band as reply
// text; GenerateReply never returns a Go error.
package zhipu

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrWong99/voxtalk/pkg/chat"
)

// Compile-time assertion that Adapter satisfies chat.Provider.
var _ chat.Provider = (*Adapter)(nil)

const (
	defaultBaseURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

	// ModelGLM4 is the default text model.
	ModelGLM4 = "glm-4"

	// ModelGLM3Turbo is the smaller text model.
	ModelGLM3Turbo = "glm-3-turbo"

	// ModelGLM4Voice activates the voice turn encoding.
	ModelGLM4Voice = "glm-4-voice"

	temperature = 0.7
	topP        = 0.8
)

// User-visible reply literals. These are in-band reply text, not errors.
const (
	missingKeyReply = "请先在设置中配置智谱AI的API密钥"
	noReplyContent  = "无回复内容"
	unknownError    = "未知错误"
)

// Option is a functional option for configuring an Adapter.
type Option func(*Adapter)

// WithBaseURL overrides the default Zhipu API endpoint. Primarily used in
// tests to point at a local mock server.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithScratchDir sets the directory where spoken reply audio is persisted.
// The directory is created on first write if absent. When empty, reply
// audio is discarded and only its id is kept.
func WithScratchDir(dir string) Option {
	return func(a *Adapter) { a.scratchDir = dir }
}

// Adapter implements chat.Provider for the Zhipu GLM API.
type Adapter struct {
	mu         sync.Mutex // guards apiKey and model
	apiKey     string
	model      string
	baseURL    string
	scratchDir string
	httpClient *http.Client
	tracker    *chat.SessionTracker
}

// New creates a Zhipu Adapter. An empty apiKey is permitted: calls made
// before a key is configured return an instruction string as the reply.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:  apiKey,
		model:   ModelGLM4,
		baseURL: defaultBaseURL,
		// No explicit timeout: a turn may legitimately take as long as the
		// model needs, and ctx still applies.
		httpClient: &http.Client{},
		tracker:    &chat.SessionTracker{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// SetAPIKey replaces the API key used for subsequent calls.
func (a *Adapter) SetAPIKey(key string) {
	a.mu.Lock()
	a.apiKey = key
	a.mu.Unlock()
}

// SetModel implements chat.Provider.
func (a *Adapter) SetModel(model string) {
	a.mu.Lock()
	a.model = model
	a.mu.Unlock()
}

// Model implements chat.Provider.
func (a *Adapter) Model() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

// Tracker exposes the voice session tracker so the owner can reset it on
// an explicit conversation clear.
func (a *Adapter) Tracker() *chat.SessionTracker { return a.tracker }

// GenerateReply implements chat.Provider.
func (a *Adapter) GenerateReply(ctx context.Context, turns []chat.Turn) chat.Reply {
	a.mu.Lock()
	key, model := a.apiKey, a.model
	a.mu.Unlock()

	if key == "" {
		return chat.Reply{Text: missingKeyReply}
	}
	if model == ModelGLM4Voice {
		return a.voiceReply(ctx, key, turns)
	}
	return a.textReply(ctx, key, model, turns)
}

// ---- wire types --------------------------------------------------------------

type textMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textRequest struct {
	Model       string        `json:"model"`
	Messages    []textMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type voiceRequest struct {
	Model       string         `json:"model"`
	Messages    []voiceMessage `json:"messages"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p"`
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Audio   *struct {
				ID   string `json:"id"`
				Data string `json:"data"`
			} `json:"audio"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ---- text path ---------------------------------------------------------------

func (a *Adapter) textReply(ctx context.Context, key, model string, turns []chat.Turn) chat.Reply {
	msgs := make([]textMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, textMessage{Role: string(t.Role), Content: t.Content})
	}
	body := textRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		TopP:        topP,
	}

	resp, errText := a.post(ctx, key, body)
	if errText != "" {
		return chat.Reply{Text: errText}
	}
	text := noReplyContent
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		text = resp.Choices[0].Message.Content
	}
	return chat.Reply{Text: text}
}

// ---- voice path --------------------------------------------------------------

func (a *Adapter) voiceReply(ctx context.Context, key string, turns []chat.Turn) chat.Reply {
	msgs, err := encodeVoiceTurns(turns, a.tracker)
	if err != nil {
		// A referenced local clip could not be read; short-circuit before
		// any network request is issued.
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}
	body := voiceRequest{
		Model:       ModelGLM4Voice,
		Messages:    msgs,
		Temperature: temperature,
		TopP:        topP,
	}

	resp, errText := a.post(ctx, key, body)
	if errText != "" {
		return chat.Reply{Text: errText}
	}
	return a.parseVoiceResponse(resp)
}

// parseVoiceResponse extracts text and spoken audio from a voice-model
// response, updates the session tracker, and persists the decoded audio.
func (a *Adapter) parseVoiceResponse(resp *apiResponse) chat.Reply {
	reply := chat.Reply{Text: noReplyContent}
	if len(resp.Choices) == 0 {
		return reply
	}
	msg := resp.Choices[0].Message
	if msg.Content != "" {
		reply.Text = msg.Content
	}
	if msg.Audio == nil {
		return reply
	}
	if msg.Audio.ID != "" {
		reply.AudioID = msg.Audio.ID
		a.tracker.Observe(msg.Audio.ID)
	}
	if msg.Audio.Data != "" {
		path, err := a.saveReplyAudio(msg.Audio.ID, msg.Audio.Data)
		if err != nil {
			// A failed save must not fail the whole turn.
			slog.Warn("failed to save voice reply audio", "audio_id", msg.Audio.ID, "err", err)
		} else {
			reply.AudioFile = path
		}
	}
	return reply
}

// saveReplyAudio base64-decodes data and writes it as <id>.wav under the
// scratch directory, creating the directory if absent.
func (a *Adapter) saveReplyAudio(id, data string) (string, error) {
	if a.scratchDir == "" {
		return "", fmt.Errorf("zhipu: no scratch directory configured")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("zhipu: decode reply audio: %w", err)
	}
	if err := os.MkdirAll(a.scratchDir, 0o755); err != nil {
		return "", fmt.Errorf("zhipu: create scratch dir: %w", err)
	}
	name := id
	if name == "" {
		name = "reply"
	}
	path := filepath.Join(a.scratchDir, name+".wav")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("zhipu: write reply audio: %w", err)
	}
	return path, nil
}

// ---- HTTP --------------------------------------------------------------------

// post issues one chat-completion request. On success it returns the parsed
// response; on any failure it returns a user-facing error string instead.
func (a *Adapter) post(ctx context.Context, key string, body any) (*apiResponse, string) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Sprintf("API调用错误: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Sprintf("API调用错误: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Sprintf("API调用错误: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Sprintf("API调用错误: %v", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Sprintf("API调用错误: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := unknownError
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return nil, fmt.Sprintf("API调用错误: %s", msg)
	}
	return &parsed, ""
}
