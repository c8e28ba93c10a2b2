package main

import (
	"context"
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
	"aide/internal/ipc"
	"aide/internal/notify"
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
	speak := cli.BoolP("speak", "s", true, "Speak responses instead of printing them")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

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

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.WhisperModel)
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	c := action.Context{Mode: action.Printed}
	if *speak {
		c.Mode = action.Spoken
	}

	if err := ipc.StartServer(cfg.SocketPath, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "run":
			asst.HandleText(context.Background(), msg.Text, c)
		case "trigger":
			handleTrigger(cfg, asst, rec, whisper, c)
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "socket", cfg.SocketPath)

	select {}
}

func handleTrigger(cfg config.Config, asst *assistant.Assistant, rec *audio.Recorder, whisper *stt.Transcriber, c action.Context) {
	if err := notify.Chime(cfg.ChimePath); err != nil {
		log.Warn("Failed to play chime", "err", err)
	}

	log.Info("Starting listening")

	pcm, err := rec.RecordAuto()
	if err != nil {
		log.Error("Failed to record", "err", err)
		return
	}

	log.Info("Recorded", "samples", len(pcm))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := whisper.TranscribePCM(ctx, pcm, stt.Options{Language: "auto"})
	if err != nil {
		log.Error("Failed to transcribe", "err", err)
		return
	}

	text := strings.TrimSpace(res.Text)
	log.Info("Transcribed", "text", text)

	asst.HandleText(context.Background(), text, c)
}
