// Command voxtalk is a voice-capable terminal chat client for the Zhipu
// GLM and Deepseek APIs.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrWong99/voxtalk/internal/config"
	"github.com/MrWong99/voxtalk/internal/scratch"
	"github.com/MrWong99/voxtalk/internal/shell"
	"github.com/MrWong99/voxtalk/pkg/audio"
	"github.com/MrWong99/voxtalk/pkg/chat/deepseek"
	"github.com/MrWong99/voxtalk/pkg/chat/zhipu"
	"github.com/MrWong99/voxtalk/pkg/speech"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Load(*configPath)

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxtalk starting",
		"config", *configPath,
		"model", cfg.Model,
		"log_level", cfg.LogLevel,
	)

	// ── Scratch directory ─────────────────────────────────────────────────────
	scratchDir, err := scratch.Dir(cfg.ScratchDir)
	if err != nil {
		slog.Error("failed to prepare scratch directory", "err", err)
		return 1
	}
	scratch.Sweep(scratchDir)

	// ── Providers ─────────────────────────────────────────────────────────────
	zh := zhipu.New(cfg.ZhipuAPIKey, zhipu.WithScratchDir(scratchDir))
	ds := deepseek.New(cfg.DeepseekAPIKey)
	if spec := cfg.Model; spec != "" {
		switch spec {
		case deepseek.ModelChat, deepseek.ModelCoder:
			ds.SetModel(spec)
		default:
			zh.SetModel(spec)
		}
	}

	// ── Audio and speech ──────────────────────────────────────────────────────
	var recOpts []audio.RecorderOption
	if cfg.Notifications {
		recOpts = append(recOpts, audio.WithNotifications())
	}
	recorder := audio.NewRecorder(scratchDir, recOpts...)
	player := audio.NewPlayer()
	recognizer := speech.NewRecognizer(cfg.STT.BaseURL, cfg.STT.Languages)
	synthesizer := speech.NewSynthesizer(cfg.TTS.BaseURL, scratchDir, player,
		speech.WithVoice(cfg.TTS.Voice))

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Shell ─────────────────────────────────────────────────────────────────
	sh := shell.New(shell.Options{
		Config:      cfg,
		ConfigPath:  *configPath,
		Zhipu:       zh,
		Deepseek:    ds,
		Tracker:     zh.Tracker(),
		Recorder:    recorder,
		Player:      player,
		Transcriber: recognizer,
		Speaker:     synthesizer,
	})

	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("shell exited with error", "err", err)
		return 1
	}
	slog.Info("voxtalk stopped")
	return 0
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
