// Package config loads assistant settings from the environment, with an
// optional .env file on top.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIKey string `env:"OPENAI_API_KEY"`
	ProxyAddr string `env:"AIDE_PROXY"`

	SocketPath string `env:"AIDE_SOCKET" envDefault:"/tmp/aide.sock"`
	HubURL     string `env:"AIDE_HUB_URL"`

	GmailToken string        `env:"GMAIL_TOKEN"`
	MailPoll   time.Duration `env:"AIDE_MAIL_POLL" envDefault:"15m"`

	AcceptText string        `env:"AIDE_ACCEPT_TEXT" envDefault:"accept!"`
	WatchPoll  time.Duration `env:"AIDE_WATCH_POLL" envDefault:"5s"`

	GamePath string `env:"AIDE_GAME_PATH"`

	WhisperModel string `env:"AIDE_WHISPER_MODEL" envDefault:"third_party/whisper.cpp/models/ggml-base.en.bin"`
	ChimePath    string `env:"AIDE_CHIME" envDefault:"chime.mp3"`
}

// Load reads envFile (ignored when absent) and parses the environment.
func Load(envFile string) (Config, error) {
	godotenv.Load(envFile)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
