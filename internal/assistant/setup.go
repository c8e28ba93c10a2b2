package assistant

import (
	"fmt"
	log "log/slog"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"aide/internal/action"
	"aide/internal/audio"
	"aide/internal/bus"
	"aide/internal/config"
	"aide/internal/intent"
	"aide/internal/jobs"
	"aide/internal/mail"
	"aide/internal/output"
	"aide/internal/pointer"
	"aide/internal/proxy"
	"aide/internal/screen"
	"aide/internal/weather"
)

// Build assembles the full assistant with production collaborators.
func Build(cfg config.Config) (*Assistant, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
	if cfg.ProxyAddr != "" {
		httpClient, err := proxy.NewSocksClient(cfg.ProxyAddr)
		if err != nil {
			return nil, fmt.Errorf("dial socks proxy %s: %w", cfg.ProxyAddr, err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	ai := intent.NewClient(openai.NewClient(opts...))

	var events Publisher
	if cfg.HubURL != "" {
		b, err := bus.Dial(cfg.HubURL, 5*time.Second)
		if err != nil {
			log.Warn("Hub unreachable, events disabled", "url", cfg.HubURL, "err", err)
		} else {
			events = b
		}
	}

	out := output.NewChannel(audio.NewDucker([]string{"aide"}, 20))

	acts := NewActions(Deps{
		Config:  cfg,
		Out:     out,
		Ask:     ai,
		Mail:    mail.NewClient(cfg.GmailToken, nil),
		Weather: weather.NewClient(nil),
		Screen:  screen.NewReader(),
		Mouse:   pointer.NewMouse(),
		Sup:     jobs.NewSupervisor(),
		Events:  events,
	})

	reg := action.NewRegistry()
	if err := acts.RegisterAll(reg); err != nil {
		return nil, fmt.Errorf("register actions: %w", err)
	}

	return New(reg, intent.NewResolver(ai), out), nil
}
