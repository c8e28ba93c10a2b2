package assistant

import (
	"fmt"
	log "log/slog"

	"aide/internal/action"
	"aide/internal/intent"
)

// Executor invokes resolved actions. Every handler failure — error or
// panic — is absorbed here and reported on the output channel; nothing
// propagates to the dispatch loop and running background jobs are
// unaffected.
type Executor struct {
	reg *action.Registry
	out Output
}

func NewExecutor(reg *action.Registry, out Output) *Executor {
	return &Executor{reg: reg, out: out}
}

func (e *Executor) Execute(resolved intent.Resolved, c action.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Action panicked", "action", resolved.Name, "panic", r)
			e.report(c, fmt.Sprintf("Error: the %s command failed.", resolved.Name))
		}
	}()

	spec, err := e.reg.Lookup(resolved.Name)
	if err != nil {
		e.report(c, fmt.Sprintf("Error: %v.", err))
		return
	}

	args, err := spec.CheckArgs(resolved.Args)
	if err != nil {
		e.report(c, fmt.Sprintf("Error: %v.", err))
		return
	}

	if err := spec.Invoke(c, args); err != nil {
		log.Error("Action failed", "action", resolved.Name, "err", err)
		e.report(c, fmt.Sprintf("Error: %v.", err))
	}
}

func (e *Executor) report(c action.Context, msg string) {
	if err := e.out.Emit(c, msg); err != nil {
		log.Error("Failed to emit", "err", err)
	}
}
