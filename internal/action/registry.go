package action

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAction = errors.New("action already registered")
	ErrUnknownAction   = errors.New("unknown action")
)

// Registry maps action names to their specs. It is populated once at
// startup and read-only afterwards, so lookups take no lock.
type Registry struct {
	specs map[string]Spec
	order []string
}

func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a typed action to the registry. The typed handler is
// wrapped in a closure that decodes the loose argument map into T.
//
// Package-level generic function because Go does not allow generic
// methods on a non-generic receiver.
func Register[T any](r *Registry, spec Spec, fn func(c Context, args T) error) error {
	spec.handler = func(c Context, args map[string]any) error {
		t, err := decode[T](args)
		if err != nil {
			return err
		}
		return fn(c, t)
	}
	return r.add(spec)
}

func (r *Registry) add(spec Spec) error {
	if spec.Name == "" {
		return errors.New("empty action name")
	}
	if _, ok := r.specs[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, spec.Name)
	}
	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (Spec, error) {
	spec, ok := r.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return spec, nil
}

// Names returns all registered names in registration order. The order is
// stable across calls; the help action relies on that.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Specs returns all registered specs in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.specs[name])
	}
	return out
}
