package speech_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrWong99/voxtalk/pkg/speech"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF-ish"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeFirstLanguageWins(t *testing.T) {
	t.Parallel()

	var langs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		langs = append(langs, r.FormValue("language"))
		fmt.Fprint(w, `{"text":"你好"}`)
	}))
	defer srv.Close()

	r := speech.NewRecognizer(srv.URL, []string{"zh", "en"})
	got := r.Transcribe(context.Background(), writeClip(t))
	if got != "你好" {
		t.Errorf("transcript = %q", got)
	}
	if len(langs) != 1 || langs[0] != "zh" {
		t.Errorf("languages tried = %v, want [zh]", langs)
	}
}

func TestTranscribeFallsBackToSecondLanguage(t *testing.T) {
	t.Parallel()

	var langs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		lang := r.FormValue("language")
		langs = append(langs, lang)
		if lang == "zh" {
			fmt.Fprint(w, `{"text":"  "}`)
			return
		}
		fmt.Fprint(w, `{"text":"hello"}`)
	}))
	defer srv.Close()

	r := speech.NewRecognizer(srv.URL, []string{"zh", "en"})
	got := r.Transcribe(context.Background(), writeClip(t))
	if got != "hello" {
		t.Errorf("transcript = %q", got)
	}
	if len(langs) != 2 || langs[0] != "zh" || langs[1] != "en" {
		t.Errorf("languages tried = %v, want [zh en]", langs)
	}
}

func TestTranscribeExhaustedChain(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text":""}`)
	}))
	defer srv.Close()

	r := speech.NewRecognizer(srv.URL, []string{"zh", "en"})
	if got := r.Transcribe(context.Background(), writeClip(t)); got != "无法识别语音" {
		t.Errorf("transcript = %q", got)
	}
}

func TestTranscribeServerFailureContinuesChain(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"text":"recovered"}`)
	}))
	defer srv.Close()

	r := speech.NewRecognizer(srv.URL, []string{"zh", "en"})
	if got := r.Transcribe(context.Background(), writeClip(t)); got != "recovered" {
		t.Errorf("transcript = %q", got)
	}
}

func TestTranscribeUnreadableClip(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	r := speech.NewRecognizer(srv.URL, []string{"zh"})
	got := r.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if got != "无法识别语音" {
		t.Errorf("transcript = %q", got)
	}
	if called {
		t.Error("request was sent despite unreadable clip")
	}
}
