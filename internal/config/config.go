// Package config provides the persisted configuration record for the
// voxtalk client: API keys, the selected model, voice toggles, and the
// addresses of the local speech servers.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// KnownModels lists the model names the client can switch between. Used by
// [Validate] to warn about unrecognised selections.
var KnownModels = []string{"glm-4", "glm-3-turbo", "glm-4-voice", "deepseek-chat", "deepseek-coder"}

// STTConfig addresses the local speech-to-text inference server.
type STTConfig struct {
	// BaseURL of the whisper-style server, e.g. "http://localhost:8080".
	BaseURL string `yaml:"base_url"`

	// Languages tried in order per transcription.
	Languages []string `yaml:"languages"`
}

// TTSConfig addresses the local text-to-speech server.
type TTSConfig struct {
	// BaseURL of the Coqui-style server, e.g. "http://localhost:5002".
	BaseURL string `yaml:"base_url"`

	// Voice is the speaker id passed to the server. Optional.
	Voice string `yaml:"voice"`
}

// Config is the persisted configuration record.
type Config struct {
	ZhipuAPIKey    string `yaml:"zhipu_api_key"`
	DeepseekAPIKey string `yaml:"deepseek_api_key"`

	// Model selected at startup.
	Model string `yaml:"model"`

	// VoiceInput enables microphone recording commands.
	VoiceInput bool `yaml:"voice_input"`

	// VoiceOutput enables spoken replies.
	VoiceOutput bool `yaml:"voice_output"`

	// Notifications enables a desktop notification when recording starts
	// and stops.
	Notifications bool `yaml:"notifications"`

	// ScratchDir overrides the default scratch directory.
	ScratchDir string `yaml:"scratch_dir"`

	LogLevel LogLevel `yaml:"log_level"`

	STT STTConfig `yaml:"stt"`
	TTS TTSConfig `yaml:"tts"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Model:    "glm-4",
		LogLevel: LogInfo,
		STT: STTConfig{
			BaseURL:   "http://localhost:8080",
			Languages: []string{"zh", "en"},
		},
		TTS: TTSConfig{
			BaseURL: "http://localhost:5002",
		},
	}
}
