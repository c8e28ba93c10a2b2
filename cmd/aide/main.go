package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"aide/internal/action"
	"aide/internal/assistant"
	"aide/internal/audio"
	"aide/internal/config"
	"aide/internal/notify"
	"aide/pkg/audioconv"
	"aide/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	speak := cli.BoolP("speak", "s", false, "Speak responses instead of printing them")
	voice := cli.BoolP("voice", "v", false, "Capture the command from the microphone")
	audioFile := cli.StringP("audio-file", "f", "", "Transcribe the command from an audio file")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	asst, err := assistant.Build(cfg)
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}

	c := action.Context{Mode: action.Printed}
	if *speak {
		c.Mode = action.Spoken
	}

	ctx := context.Background()

	switch {
	case *voice:
		text, err := listen(cfg)
		if err != nil {
			log.Error("Failed to capture voice command", "err", err)
			os.Exit(1)
		}
		asst.HandleText(ctx, text, c)

	case *audioFile != "":
		pcm, err := audioconv.DecodeFile(*audioFile)
		if err != nil {
			log.Error("Failed to decode audio file", "file", *audioFile, "err", err)
			os.Exit(1)
		}
		text, err := transcribe(cfg, pcm)
		if err != nil {
			log.Error("Failed to transcribe", "err", err)
			os.Exit(1)
		}
		log.Info("Transcribed", "text", text)
		asst.HandleText(ctx, text, c)

	case len(cli.Args()) > 0:
		asst.HandleText(ctx, strings.Join(cli.Args(), " "), c)

	default:
		interactive(ctx, asst, c)
	}
}

func interactive(ctx context.Context, asst *assistant.Assistant, c action.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("aide> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		asst.HandleText(ctx, text, c)
	}
}

func listen(cfg config.Config) (string, error) {
	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		return "", fmt.Errorf("init audio: %w", err)
	}
	defer rec.Close()

	if err := notify.Chime(cfg.ChimePath); err != nil {
		log.Warn("Failed to play chime", "err", err)
	}

	log.Info("Listening")

	pcm, err := rec.RecordAuto()
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}

	log.Info("Recorded", "samples", len(pcm))
	return transcribe(cfg, pcm)
}

func transcribe(cfg config.Config, pcm []float32) (string, error) {
	whisper, err := stt.NewTranscriber(cfg.WhisperModel)
	if err != nil {
		return "", fmt.Errorf("init whisper: %w", err)
	}
	defer whisper.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := whisper.TranscribePCM(ctx, pcm, stt.Options{Language: "auto"})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}
