// Package deepseek provides a chat.Provider backed by the Deepseek
// chat-completion API. Deepseek has no voice variant, so only the plain
// {role, content} request shape is produced.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/MrWong99/voxtalk/pkg/chat"
)

var _ chat.Provider = (*Adapter)(nil)

const (
	defaultBaseURL = "https://api.deepseek.com/v1/chat/completions"

	// ModelChat is the default general-purpose model.
	ModelChat = "deepseek-chat"

	// ModelCoder is the code-oriented model.
	ModelCoder = "deepseek-coder"

	temperature = 0.7
	maxTokens   = 1000
)

const (
	missingKeyReply = "请先在设置中配置Deepseek的API密钥"
	noReplyContent  = "无回复内容"
	unknownError    = "未知错误"
)

// Option is a functional option for configuring an Adapter.
type Option func(*Adapter)

// WithBaseURL overrides the default Deepseek API endpoint.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// Adapter implements chat.Provider for the Deepseek API.
type Adapter struct {
	mu         sync.Mutex // guards apiKey and model
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a Deepseek Adapter. An empty apiKey is permitted: calls made
// before a key is configured return an instruction string as the reply.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:     apiKey,
		model:      ModelChat,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
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

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReply implements chat.Provider.
func (a *Adapter) GenerateReply(ctx context.Context, turns []chat.Turn) chat.Reply {
	a.mu.Lock()
	key, model := a.apiKey, a.model
	a.mu.Unlock()

	if key == "" {
		return chat.Reply{Text: missingKeyReply}
	}

	msgs := make([]message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, message{Role: string(t.Role), Content: t.Content})
	}
	payload, err := json.Marshal(request{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}

	var parsed response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := unknownError
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return chat.Reply{Text: fmt.Sprintf("API调用错误: %s", msg)}
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return chat.Reply{Text: noReplyContent}
	}
	return chat.Reply{Text: parsed.Choices[0].Message.Content}
}
