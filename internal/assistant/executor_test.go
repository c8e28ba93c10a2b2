package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aide/internal/action"
	"aide/internal/intent"
)

func TestExecuteUnknownAction(t *testing.T) {
	out := &fakeOut{}
	exec := NewExecutor(action.NewRegistry(), out)

	exec.Execute(intent.Resolved{Name: "sing"}, action.Context{})

	require.Len(t, out.all(), 1)
	assert.Contains(t, out.all()[0], "unknown action")
}

func TestExecuteRecoversPanic(t *testing.T) {
	reg := action.NewRegistry()
	require.NoError(t, action.Register(reg, action.Spec{Name: "boom"},
		func(action.Context, struct{}) error { panic("kaboom") }))

	out := &fakeOut{}
	exec := NewExecutor(reg, out)

	assert.NotPanics(t, func() {
		exec.Execute(intent.Resolved{Name: "boom"}, action.Context{})
	})
	require.Len(t, out.all(), 1)
	assert.Contains(t, out.all()[0], "boom command failed")
}

func TestExecuteIgnoresExtraArguments(t *testing.T) {
	reg := action.NewRegistry()
	var gotCity string
	require.NoError(t, action.Register(reg, action.Spec{
		Name:   "weather",
		Params: []action.Param{{Name: "city", Type: "string", Default: ""}},
	}, func(_ action.Context, args weatherArgs) error {
		gotCity = args.City
		return nil
	}))

	out := &fakeOut{}
	exec := NewExecutor(reg, out)
	exec.Execute(intent.Resolved{
		Name: "weather",
		Args: map[string]any{"city": "Paris", "mood": "curious"},
	}, action.Context{})

	assert.Equal(t, "Paris", gotCity)
	assert.Empty(t, out.all(), "no error for tolerated extra keys")
}

type noMatchInferencer struct {
	calls int
}

func (n *noMatchInferencer) Infer(context.Context, string, []action.Spec) (intent.Call, error) {
	n.calls++
	return intent.Call{}, intent.ErrNoMatch
}

func TestHandleTextNoMatchHasNoSideEffects(t *testing.T) {
	f := newFixture(t)

	inf := &noMatchInferencer{}
	asst := New(f.reg, intent.NewResolver(inf), f.out)
	asst.HandleText(context.Background(), "please fold my laundry", action.Context{})

	assert.Equal(t, 1, inf.calls)
	assert.Equal(t, []string{"Sorry, I don't know a command for that."}, f.out.all())

	// no collaborator was touched and no job was started
	assert.Zero(t, f.asker.calls.Load())
	assert.Zero(t, f.mail.calls.Load())
	assert.Zero(t, f.fc.coordCalls.Load())
	assert.Empty(t, f.sup.Keys())
}

type cannedInferencer struct {
	call intent.Call
}

func (c *cannedInferencer) Infer(context.Context, string, []action.Spec) (intent.Call, error) {
	return c.call, nil
}

func TestHandleTextHelpScenario(t *testing.T) {
	f := newFixture(t)

	inf := &cannedInferencer{call: intent.Call{Name: "help"}}
	asst := New(f.reg, intent.NewResolver(inf), f.out)
	asst.HandleText(context.Background(), "what commands can you run", action.Context{})

	require.Len(t, f.out.all(), 1)
	assert.Contains(t, f.out.all()[0], "help, ask_question")
}
