package deepseek_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/voxtalk/pkg/chat"
	"github.com/MrWong99/voxtalk/pkg/chat/deepseek"
)

func TestMissingKeySkipsNetwork(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := deepseek.New("", deepseek.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "请先在设置中配置Deepseek的API密钥" {
		t.Errorf("reply = %q", reply.Text)
	}
	if called {
		t.Error("request was sent despite missing key")
	}
}

func TestRequestShapeAndReply(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-ds" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer srv.Close()

	a := deepseek.New("sk-ds", deepseek.WithBaseURL(srv.URL))
	a.SetModel(deepseek.ModelCoder)
	reply := a.GenerateReply(context.Background(), []chat.Turn{
		{Role: chat.RoleSystem, Content: "be brief"},
		{Role: chat.RoleUser, Content: "write a loop"},
	})

	if reply.Text != "done" {
		t.Errorf("reply = %q", reply.Text)
	}
	if gotBody["model"] != "deepseek-coder" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.7 || gotBody["max_tokens"] != float64(1000) {
		t.Errorf("knobs = %v / %v", gotBody["temperature"], gotBody["max_tokens"])
	}
	msgs := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be brief" {
		t.Errorf("order not preserved: %v", first)
	}
}

func TestAPIErrorBecomesReplyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	a := deepseek.New("sk-ds", deepseek.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "API调用错误: rate limited" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestEmptyContentFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	a := deepseek.New("sk-ds", deepseek.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "无回复内容" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestTransportFailureBecomesReplyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := deepseek.New("sk-ds", deepseek.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if !strings.HasPrefix(reply.Text, "API调用错误: ") {
		t.Errorf("reply = %q", reply.Text)
	}
}
