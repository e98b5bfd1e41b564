// Package shell implements the interactive terminal chat loop: rendering
// turns, dispatching slash commands, and running provider calls and audio
// I/O on worker goroutines so reading input never blocks on the network.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MrWong99/voxtalk/internal/config"
	"github.com/MrWong99/voxtalk/internal/conversation"
	"github.com/MrWong99/voxtalk/internal/document"
	"github.com/MrWong99/voxtalk/pkg/chat"
)

// Provider is a chat backend whose API key can be swapped at runtime.
type Provider interface {
	chat.Provider
	SetAPIKey(key string)
}

// Recorder captures microphone audio to a WAV file.
type Recorder interface {
	Start() error
	Stop() (string, error)
	IsRecording() bool
}

// Player plays a WAV file through the speakers.
type Player interface {
	Play(path string) error
}

// Transcriber converts a recorded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) string
}

// Speaker schedules text for speech synthesis and playback.
type Speaker interface {
	Speak(text string) bool
}

// Options wires the shell's collaborators.
type Options struct {
	Config     *config.Config
	ConfigPath string
	Zhipu      Provider
	Deepseek   Provider
	// Tracker is reset on /clear alongside the conversation buffer.
	Tracker     *chat.SessionTracker
	Recorder    Recorder
	Player      Player
	Transcriber Transcriber
	Speaker     Speaker
	In          io.Reader
	Out         io.Writer
}

// Shell is the interactive chat loop.
type Shell struct {
	cfg        *config.Config
	cfgPath    string
	buffer     *conversation.Buffer
	zhipu      Provider
	deepseek   Provider
	tracker    *chat.SessionTracker
	recorder   Recorder
	player     Player
	recognizer Transcriber
	speaker    Speaker
	in         io.Reader
	out        io.Writer

	// busy guards against overlapping sends; a second send while one is in
	// flight is declined rather than interleaved.
	busy atomic.Bool

	mu          sync.Mutex // guards pendingText and pendingClip
	pendingText string
	pendingClip string

	workers sync.WaitGroup
}

// New creates a Shell from opts. In and Out default to stdin/stdout.
func New(opts Options) *Shell {
	s := &Shell{
		cfg:        opts.Config,
		cfgPath:    opts.ConfigPath,
		buffer:     &conversation.Buffer{},
		zhipu:      opts.Zhipu,
		deepseek:   opts.Deepseek,
		tracker:    opts.Tracker,
		recorder:   opts.Recorder,
		player:     opts.Player,
		recognizer: opts.Transcriber,
		speaker:    opts.Speaker,
		in:         opts.In,
		out:        opts.Out,
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	return s
}

// Run reads lines until EOF, /quit, or ctx cancellation. In-flight workers
// are drained before Run returns.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, infoStyle.Render("voxtalk — /help 查看命令"))
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(s.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "/") {
			if quit := s.handleCommand(ctx, line); quit {
				break
			}
			continue
		}
		s.handleInput(ctx, line)
	}

	s.workers.Wait()
	return scanner.Err()
}

// handleInput sends line as a chat message. An empty line sends pending
// input (a transcript or loaded document, or a recorded clip) when present.
func (s *Shell) handleInput(ctx context.Context, line string) {
	s.mu.Lock()
	if line == "" {
		line = s.pendingText
	}
	s.pendingText = ""
	clip := ""
	if s.voiceModelActive() && s.cfg.VoiceInput {
		clip = s.pendingClip
		s.pendingClip = ""
	}
	s.mu.Unlock()

	if line == "" && clip == "" {
		return
	}
	s.send(ctx, line, clip)
}

// send appends the user turn and dispatches the provider call on a worker
// goroutine. At most one send is in flight at a time.
func (s *Shell) send(ctx context.Context, text, clip string) {
	if !s.busy.CompareAndSwap(false, true) {
		fmt.Fprintln(s.out, errorStyle.Render("上一条消息仍在处理中，请稍候"))
		return
	}

	provider := s.currentProvider()
	voiceOut := s.cfg.VoiceOutput

	s.buffer.Append(chat.Turn{Role: chat.RoleUser, Content: text, AudioFile: clip})
	s.printTurn(userStyle.Render("用户:"), text)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer s.busy.Store(false)

		reply := provider.GenerateReply(ctx, s.buffer.Snapshot())
		s.buffer.Append(chat.Turn{Role: chat.RoleAssistant, Content: reply.Text, AudioID: reply.AudioID})
		s.printTurn(assistantStyle.Render("AI 助手:"), reply.Text)

		if !voiceOut {
			return
		}
		if reply.AudioFile != "" {
			if _, err := os.Stat(reply.AudioFile); err == nil {
				s.workers.Add(1)
				go func() {
					defer s.workers.Done()
					if err := s.player.Play(reply.AudioFile); err != nil {
						slog.Warn("voice reply playback failed", "path", reply.AudioFile, "err", err)
					}
				}()
				return
			}
		}
		s.speaker.Speak(reply.Text)
	}()
}

func (s *Shell) printTurn(label, text string) {
	fmt.Fprintf(s.out, "\n%s %s\n", label, text)
}

func (s *Shell) currentProvider() Provider {
	if spec, ok := models[s.cfg.Model]; ok && spec.provider == providerDeepseek {
		return s.deepseek
	}
	return s.zhipu
}

func (s *Shell) voiceModelActive() bool {
	spec, ok := models[s.cfg.Model]
	return ok && spec.voice
}

// toggleRecording starts the recorder, or stops it and routes the clip:
// with the voice model the clip is attached to an immediate send; otherwise
// it is transcribed into pending input.
func (s *Shell) toggleRecording(ctx context.Context) {
	if !s.cfg.VoiceInput {
		fmt.Fprintln(s.out, infoStyle.Render("语音输入未启用，先执行 /voice in on"))
		return
	}
	if !s.recorder.IsRecording() {
		if err := s.recorder.Start(); err != nil {
			fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("录音启动失败: %v", err)))
			return
		}
		fmt.Fprintln(s.out, infoStyle.Render("录音中… 再次 /record 停止"))
		return
	}

	path, err := s.recorder.Stop()
	if err != nil {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("录音失败: %v", err)))
		return
	}
	if path == "" {
		return
	}

	if s.voiceModelActive() {
		// The voice model consumes the clip directly; a blank message gets
		// its placeholder text during request encoding.
		s.mu.Lock()
		s.pendingClip = path
		s.mu.Unlock()
		s.handleInput(ctx, "")
		return
	}

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		text := s.recognizer.Transcribe(ctx, path)
		s.mu.Lock()
		s.pendingText = text
		s.mu.Unlock()
		fmt.Fprintf(s.out, "\n%s %s\n", infoStyle.Render("识别结果(回车发送):"), text)
	}()
}

// loadDocument extracts the file's text into pending input, prefixed the
// way a pasted document would be.
func (s *Shell) loadDocument(path string) {
	content := document.Extract(path)
	s.mu.Lock()
	s.pendingText = "文件内容:\n" + content
	s.mu.Unlock()
	fmt.Fprintln(s.out, infoStyle.Render("已加载文件内容，回车发送"))
}

func (s *Shell) clearConversation() {
	s.buffer.Clear()
	if s.tracker != nil {
		s.tracker.Reset()
	}
	s.mu.Lock()
	s.pendingText = ""
	s.pendingClip = ""
	s.mu.Unlock()
	fmt.Fprintln(s.out, infoStyle.Render("对话已清空"))
}
