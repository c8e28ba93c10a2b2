// Package assistant wires utterances to actions: it resolves free text
// into one registered action and executes it, foreground or through the
// job supervisor.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"aide/internal/action"
	"aide/internal/intent"
)

// Output is the user-visible reporting channel.
type Output interface {
	Emit(c action.Context, text string) error
}

// Assistant is the foreground dispatch pipeline. One instance serves
// the whole process; commands are handled one at a time.
type Assistant struct {
	reg      *action.Registry
	resolver *intent.Resolver
	exec     *Executor
	out      Output
}

func New(reg *action.Registry, resolver *intent.Resolver, out Output) *Assistant {
	return &Assistant{
		reg:      reg,
		resolver: resolver,
		exec:     NewExecutor(reg, out),
		out:      out,
	}
}

// HandleText runs one utterance through resolution and execution.
// A failed resolution is reported and nothing is executed.
func (a *Assistant) HandleText(ctx context.Context, text string, c action.Context) {
	resolved, err := a.resolver.Resolve(ctx, text, a.reg.Specs())
	if err != nil {
		if errors.Is(err, intent.ErrNoMatch) {
			a.report(c, "Sorry, I don't know a command for that.")
			return
		}
		a.report(c, fmt.Sprintf("Error: could not resolve the command: %v.", err))
		return
	}

	log.Debug("Resolved", "action", resolved.Name, "args", resolved.Args)
	a.exec.Execute(resolved, c)
}

func (a *Assistant) report(c action.Context, msg string) {
	if err := a.out.Emit(c, msg); err != nil {
		log.Error("Failed to emit", "err", err)
	}
}
