package zhipu_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/voxtalk/pkg/chat"
	"github.com/MrWong99/voxtalk/pkg/chat/zhipu"
)

func TestMissingKeySkipsNetwork(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := zhipu.New("", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "请先在设置中配置智谱AI的API密钥" {
		t.Errorf("reply = %q", reply.Text)
	}
	if called {
		t.Error("request was sent despite missing key")
	}
}

func TestTextRequestAndReply(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	}))
	defer srv.Close()

	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleAssistant, Content: "second"},
		{Role: chat.RoleUser, Content: "third"},
	})

	if reply.Text != "hello there" {
		t.Errorf("reply = %q, want %q", reply.Text, "hello there")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["model"] != "glm-4" {
		t.Errorf("model = %v, want glm-4", gotBody["model"])
	}
	if gotBody["temperature"] != 0.7 || gotBody["top_p"] != 0.8 {
		t.Errorf("sampling knobs = %v / %v", gotBody["temperature"], gotBody["top_p"])
	}
	msgs := gotBody["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "first" {
		t.Errorf("message order not preserved: %v", first)
	}
}

func TestAPIErrorBecomesReplyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	a := zhipu.New("sk-bad", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "API调用错误: bad key" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestAPIErrorWithoutMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "API调用错误: 未知错误" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestEmptyChoicesFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "无回复内容" {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestTransportFailureBecomesReplyText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL))
	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if !strings.HasPrefix(reply.Text, "API调用错误: ") {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestVoiceReplySavesAudioAndTracksID(t *testing.T) {
	t.Parallel()

	audio := []byte("fake-wav-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["model"] != "glm-4-voice" {
			t.Errorf("model = %v", body["model"])
		}
		resp := map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{
					"content": "spoken reply",
					"audio": map[string]any{
						"id":   "aid-42",
						"data": base64.StdEncoding.EncodeToString(audio),
					},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	scratch := t.TempDir()
	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL), zhipu.WithScratchDir(scratch))
	a.SetModel(zhipu.ModelGLM4Voice)

	reply := a.GenerateReply(context.Background(), []chat.Turn{{Role: chat.RoleUser, Content: "hi"}})
	if reply.Text != "spoken reply" {
		t.Errorf("reply text = %q", reply.Text)
	}
	if reply.AudioID != "aid-42" {
		t.Errorf("audio id = %q", reply.AudioID)
	}
	want := filepath.Join(scratch, "aid-42.wav")
	if reply.AudioFile != want {
		t.Fatalf("audio file = %q, want %q", reply.AudioFile, want)
	}
	saved, err := os.ReadFile(reply.AudioFile)
	if err != nil {
		t.Fatalf("read saved audio: %v", err)
	}
	if string(saved) != string(audio) {
		t.Error("saved audio does not match response data")
	}
	if last, ok := a.Tracker().Last(); !ok || last != "aid-42" {
		t.Errorf("tracker = %q %v", last, ok)
	}
}

func TestVoiceUnreadableClipNoNetwork(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := zhipu.New("sk-test", zhipu.WithBaseURL(srv.URL))
	a.SetModel(zhipu.ModelGLM4Voice)
	reply := a.GenerateReply(context.Background(), []chat.Turn{
		{Role: chat.RoleUser, Content: "hi", AudioFile: filepath.Join(t.TempDir(), "gone.wav")},
	})
	if !strings.HasPrefix(reply.Text, "API调用错误: ") {
		t.Errorf("reply = %q", reply.Text)
	}
	if called {
		t.Error("request was sent despite unreadable clip")
	}
}

func TestSetModelRoundTrip(t *testing.T) {
	t.Parallel()

	a := zhipu.New("sk-test")
	if a.Model() != zhipu.ModelGLM4 {
		t.Errorf("default model = %q", a.Model())
	}
	a.SetModel(zhipu.ModelGLM3Turbo)
	if a.Model() != zhipu.ModelGLM3Turbo {
		t.Errorf("model = %q", a.Model())
	}
}
