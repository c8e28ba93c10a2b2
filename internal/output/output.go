// Package output is the assistant's single reporting channel: every
// user-visible message goes through here, spoken or printed depending
// on the execution context.
package output

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"aide/internal/action"
	"aide/internal/audio"
	"aide/internal/tts"
)

// Channel emits messages. With a ducker attached, other audio streams
// are lowered for the duration of spoken output.
type Channel struct {
	ducker *audio.Ducker
}

func NewChannel(ducker *audio.Ducker) *Channel {
	return &Channel{ducker: ducker}
}

// Emit delivers text according to c.Mode.
func (ch *Channel) Emit(c action.Context, text string) error {
	if c.Mode != action.Spoken {
		fmt.Println(text)
		return nil
	}

	if ch.ducker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := ch.ducker.Duck(ctx); err != nil {
			log.Warn("Failed to duck streams", "err", err)
		}
		defer func() {
			if err := ch.ducker.Restore(ctx); err != nil {
				log.Warn("Failed to restore streams", "err", err)
			}
		}()
	}

	if err := tts.Speak(text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

// Emitf is Emit with formatting.
func (ch *Channel) Emitf(c action.Context, format string, args ...any) error {
	return ch.Emit(c, fmt.Sprintf(format, args...))
}
