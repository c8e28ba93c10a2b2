// Package intent turns one free-form utterance into exactly one
// registered action with arguments, or fails. There is no fallback
// action and no retry: one round-trip to the inference collaborator
// per utterance.
package intent

import (
	"context"
	"errors"
	"fmt"

	"aide/internal/action"
)

// ErrNoMatch is returned when no registered action fits the utterance.
var ErrNoMatch = errors.New("no matching action")

// Call is the structured result of the inference collaborator.
type Call struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Resolved pairs an action name with concrete arguments. Consumed once.
type Resolved struct {
	Name string
	Args map[string]any
}

// Inferencer is the external structured-inference collaborator. It is
// given the callable signatures of every candidate action as the
// permitted output vocabulary. A no-match answer is ErrNoMatch.
type Inferencer interface {
	Infer(ctx context.Context, text string, candidates []action.Spec) (Call, error)
}

// Resolver validates the collaborator's answer against the candidates.
type Resolver struct {
	inf Inferencer
}

func NewResolver(inf Inferencer) *Resolver {
	return &Resolver{inf: inf}
}

// Resolve maps text onto one of candidates. Any failure wraps ErrNoMatch
// except transport errors from the collaborator, which pass through.
func (r *Resolver) Resolve(ctx context.Context, text string, candidates []action.Spec) (Resolved, error) {
	if text == "" {
		return Resolved{}, fmt.Errorf("%w: empty utterance", ErrNoMatch)
	}
	if len(candidates) == 0 {
		return Resolved{}, fmt.Errorf("%w: no candidate actions", ErrNoMatch)
	}

	call, err := r.inf.Infer(ctx, text, candidates)
	if err != nil {
		return Resolved{}, err
	}

	for _, spec := range candidates {
		if spec.Name == call.Name {
			args := call.Args
			if args == nil {
				args = map[string]any{}
			}
			return Resolved{Name: call.Name, Args: args}, nil
		}
	}

	return Resolved{}, fmt.Errorf("%w: inference returned %q", ErrNoMatch, call.Name)
}
