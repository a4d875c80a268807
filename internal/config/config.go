package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the desktop client.
type Config struct {
	Backend  BackendConfig
	Audio    AudioConfig
	Playback PlaybackConfig
	State    StateConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type PlaybackConfig struct {
	SampleRate int
}

type StateConfig struct {
	VaultPath   string
	ChatLogPath string
	LogDir      string
}

// Load resolves configuration from a .env file (if present), environment
// variables, and sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	stateDir := filepath.Join(home, ".config", "kittydesk")

	cfg := Config{
		Backend: BackendConfig{
			BaseURL: envOrDefault("KITTYDESK_BACKEND_URL", "http://127.0.0.1:5000"),
			Timeout: time.Duration(envOrDefaultInt("KITTYDESK_HTTP_TIMEOUT_MS", 0)) * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("KITTYDESK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("KITTYDESK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("KITTYDESK_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("KITTYDESK_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("KITTYDESK_CHANNELS", 1),
		},
		Playback: PlaybackConfig{
			SampleRate: envOrDefaultInt("KITTYDESK_PLAYBACK_RATE", 24000),
		},
		State: StateConfig{
			VaultPath:   envOrDefault("KITTYDESK_STATE_FILE", filepath.Join(stateDir, "session.json")),
			ChatLogPath: envOrDefault("KITTYDESK_CHAT_LOG", filepath.Join(stateDir, "chat.jsonl")),
			LogDir:      strings.TrimSpace(os.Getenv("KITTYDESK_LOG_DIR")),
		},
	}

	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Playback.SampleRate <= 0 {
		cfg.Playback.SampleRate = 24000
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
