// Package action holds the registry of everything the assistant can do.
// Each action is registered once at startup with a typed argument struct;
// resolution and execution only ever see the type-erased Spec.
package action

import (
	"encoding/json"
	"fmt"
)

// OutputMode selects how an action reports back to the user.
type OutputMode int

const (
	Printed OutputMode = iota
	Spoken
)

// Context is passed by value into every action invocation.
// Actions must not mutate it.
type Context struct {
	Mode OutputMode
}

// Param describes one declared parameter of an action.
type Param struct {
	Name     string
	Type     string
	Required bool
	Default  any
}

// Handler is the type-erased form every action is reduced to.
type Handler func(c Context, args map[string]any) error

// Spec is one registered action: its callable signature plus the handler.
// Immutable once registered.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	handler     Handler
}

// Signature renders the spec the way it is shown to the inference
// collaborator, e.g. `weather(city: string = "")`.
func (s Spec) Signature() string {
	sig := s.Name + "("
	for i, p := range s.Params {
		if i > 0 {
			sig += ", "
		}
		sig += p.Name + ": " + p.Type
		if !p.Required {
			sig += fmt.Sprintf(" = %#v", p.Default)
		}
	}
	return sig + ")"
}

// MissingArgumentError reports a required parameter that the resolved
// call did not supply and that has no default.
type MissingArgumentError struct {
	Action string
	Param  string
}

func (e MissingArgumentError) Error() string {
	return fmt.Sprintf("action %q: missing required argument %q", e.Action, e.Param)
}

// CheckArgs applies declared defaults to args and verifies every required
// parameter is present. Unknown keys are left alone; the typed handler
// ignores them. The returned map is a copy, args is not mutated.
func (s Spec) CheckArgs(args map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(args)+len(s.Params))
	for k, v := range args {
		merged[k] = v
	}
	for _, p := range s.Params {
		if _, ok := merged[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, MissingArgumentError{Action: s.Name, Param: p.Name}
		}
		if p.Default != nil {
			merged[p.Name] = p.Default
		}
	}
	return merged, nil
}

// Invoke runs the handler. Callers go through CheckArgs first.
func (s Spec) Invoke(c Context, args map[string]any) error {
	return s.handler(c, args)
}

// decode round-trips the loose argument map through JSON into the typed
// argument struct. Unknown keys fall away here, which is what gives the
// executor its extra-argument tolerance.
func decode[T any](args map[string]any) (T, error) {
	var t T
	if len(args) == 0 {
		return t, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return t, fmt.Errorf("encode args: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("decode args: %w", err)
	}
	return t, nil
}
