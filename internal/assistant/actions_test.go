package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aide/internal/action"
	"aide/internal/bus"
	"aide/internal/config"
	"aide/internal/intent"
	"aide/internal/jobs"
	"aide/internal/mail"
	"aide/internal/screen"
	"aide/internal/weather"
)

type fakeOut struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeOut) Emit(_ action.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeOut) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeAsker struct {
	answer string
	err    error
	calls  atomic.Int32
}

func (f *fakeAsker) Ask(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.answer, f.err
}

type fakeMailbox struct {
	messages []mail.Message
	err      error
	calls    atomic.Int32
}

func (f *fakeMailbox) FetchNew(context.Context) ([]mail.Message, error) {
	f.calls.Add(1)
	return f.messages, f.err
}

type fakeForecaster struct {
	loc       weather.Location
	locErr    error
	report    weather.Report
	reportErr error

	coordCalls  atomic.Int32
	locateCalls atomic.Int32
	wxCalls     atomic.Int32
}

func (f *fakeForecaster) CoordinatesForCity(context.Context, string) (weather.Location, error) {
	f.coordCalls.Add(1)
	return f.loc, f.locErr
}

func (f *fakeForecaster) Locate(context.Context) (weather.Location, error) {
	f.locateCalls.Add(1)
	return f.loc, f.locErr
}

func (f *fakeForecaster) WeatherFor(context.Context, float64, float64) (weather.Report, error) {
	f.wxCalls.Add(1)
	return f.report, f.reportErr
}

type fakeScreen struct {
	box   screen.Box
	found atomic.Bool
	calls atomic.Int32
}

func (f *fakeScreen) Capture(context.Context) ([]byte, error) {
	f.calls.Add(1)
	return []byte("png"), nil
}

func (f *fakeScreen) FindText(context.Context, []byte, string) (screen.Box, bool, error) {
	return f.box, f.found.Load(), nil
}

type fakeMouse struct {
	mu     sync.Mutex
	moves  [][2]int
	clicks int
}

func (f *fakeMouse) MoveTo(_ context.Context, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, [2]int{x, y})
	return nil
}

func (f *fakeMouse) Click(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks++
	return nil
}

func (f *fakeMouse) Jiggle(context.Context) error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []bus.Event
}

func (f *fakePublisher) Publish(ev bus.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	acts   *Actions
	reg    *action.Registry
	out    *fakeOut
	asker  *fakeAsker
	mail   *fakeMailbox
	fc     *fakeForecaster
	screen *fakeScreen
	mouse  *fakeMouse
	events *fakePublisher
	sup    *jobs.Supervisor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		out:    &fakeOut{},
		asker:  &fakeAsker{answer: "forty-two"},
		mail:   &fakeMailbox{},
		fc:     &fakeForecaster{},
		screen: &fakeScreen{},
		mouse:  &fakeMouse{},
		events: &fakePublisher{},
		sup:    jobs.NewSupervisor(),
	}

	cfg := config.Config{
		MailPoll:   time.Hour,
		WatchPoll:  time.Millisecond,
		AcceptText: "accept!",
		GamePath:   "/games/league.desktop",
	}

	f.acts = NewActions(Deps{
		Config:  cfg,
		Out:     f.out,
		Ask:     f.asker,
		Mail:    f.mail,
		Weather: f.fc,
		Screen:  f.screen,
		Mouse:   f.mouse,
		Sup:     f.sup,
		Events:  f.events,
	})
	f.acts.exit = func(int) {}
	f.acts.powerOff = func() error { return nil }
	f.acts.launch = func(string) error { return nil }

	f.reg = action.NewRegistry()
	require.NoError(t, f.acts.RegisterAll(f.reg))

	t.Cleanup(func() { f.sup.Stop(mailJobKey) })
	return f
}

func hasMessage(out *fakeOut, substr string) bool {
	for _, m := range out.all() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func (f *fixture) execute(name string, args map[string]any) {
	exec := NewExecutor(f.reg, f.out)
	exec.Execute(intent.Resolved{Name: name, Args: args}, action.Context{})
}

func TestHelpListsCommandsInRegistrationOrder(t *testing.T) {
	f := newFixture(t)

	f.execute("help", nil)

	require.Len(t, f.out.all(), 1)
	assert.Equal(t,
		"Available commands are: help, ask_question, check_new_emails, "+
			"start_checking_new_emails, stop_checking_new_emails, weather, "+
			"accept_game, idle_mouse, queue_up, close_computer, exit.",
		f.out.all()[0])
}

func TestAskQuestion(t *testing.T) {
	f := newFixture(t)

	f.execute("ask_question", map[string]any{"question": "meaning of life?"})

	assert.Equal(t, []string{"forty-two"}, f.out.all())
}

func TestAskQuestionMissingArgument(t *testing.T) {
	f := newFixture(t)

	f.execute("ask_question", map[string]any{})

	require.Len(t, f.out.all(), 1)
	assert.Contains(t, f.out.all()[0], `missing required argument "question"`)
	assert.Zero(t, f.asker.calls.Load(), "handler must not run")
}

func TestCheckNewEmails(t *testing.T) {
	f := newFixture(t)
	f.mail.messages = []mail.Message{
		{From: "Ada", Subject: "Meeting"},
		{From: "Bob", Subject: "Lunch"},
	}

	f.execute("check_new_emails", nil)

	got := f.out.all()
	require.Len(t, got, 3)
	assert.Equal(t, "You have 2 new messages.", got[0])
	assert.Equal(t, "Message from Ada: Meeting.", got[1])
}

func TestWeatherByCity(t *testing.T) {
	f := newFixture(t)
	f.fc.loc = weather.Location{City: "Paris", Lat: 48.85, Lon: 2.35}
	f.fc.report = weather.Report{Description: "clear sky", Temperature: 21.4}

	f.execute("weather", map[string]any{"city": "Paris"})

	require.Len(t, f.out.all(), 1)
	assert.Equal(t, "The weather for Paris is clear sky with 21.4°C.", f.out.all()[0])
	assert.Equal(t, int32(1), f.fc.coordCalls.Load())
	assert.Zero(t, f.fc.locateCalls.Load())
}

func TestWeatherWithoutCityUsesGeolocation(t *testing.T) {
	f := newFixture(t)
	f.fc.loc = weather.Location{City: "Lisbon", Lat: 38.7, Lon: -9.1}
	f.fc.report = weather.Report{Description: "rain", Temperature: 17}

	f.execute("weather", nil)

	assert.Equal(t, int32(1), f.fc.locateCalls.Load())
	assert.Zero(t, f.fc.coordCalls.Load())
	assert.Equal(t, "The weather for Lisbon is rain with 17.0°C.", f.out.all()[0])
}

func TestWeatherCoordinateFailureStopsThere(t *testing.T) {
	f := newFixture(t)
	f.fc.locErr = errors.New("geocoder down")

	f.execute("weather", map[string]any{"city": "Paris"})

	require.Len(t, f.out.all(), 1)
	assert.Contains(t, f.out.all()[0], "could not retrieve coordinates")
	assert.Zero(t, f.fc.wxCalls.Load(), "no forecast call after a coordinate failure")
}

func TestStartCheckingNewEmailsDeduplicates(t *testing.T) {
	f := newFixture(t)

	f.execute("start_checking_new_emails", nil)
	assert.True(t, f.sup.Running(mailJobKey))

	// first unit of work fires immediately
	assert.Eventually(t, func() bool { return f.mail.calls.Load() == 1 },
		time.Second, time.Millisecond)

	f.execute("start_checking_new_emails", nil)
	assert.True(t, hasMessage(f.out, "Already checking"))

	f.execute("stop_checking_new_emails", nil)
	assert.False(t, f.sup.Running(mailJobKey))

	f.execute("stop_checking_new_emails", nil)
	assert.True(t, hasMessage(f.out, "Not currently checking"))
}

func TestAcceptGameClicksPromptCenter(t *testing.T) {
	f := newFixture(t)
	f.screen.box = screen.Box{X: 900, Y: 520, W: 120, H: 40}
	f.screen.found.Store(true)

	f.execute("accept_game", nil)

	assert.Eventually(t, func() bool {
		f.mouse.mu.Lock()
		defer f.mouse.mu.Unlock()
		return f.mouse.clicks == 1
	}, time.Second, time.Millisecond)

	f.mouse.mu.Lock()
	defer f.mouse.mu.Unlock()
	require.Len(t, f.mouse.moves, 1)
	assert.Equal(t, [2]int{960, 540}, f.mouse.moves[0])

	assert.Eventually(t, func() bool {
		for _, k := range f.events.kinds() {
			if k == "game_accepted" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestAcceptGameSpawnsIndependentWatchers(t *testing.T) {
	// two watchers for the same prompt run side by side; the key is
	// intentionally not deduplicated like the mail poll
	f := newFixture(t)

	f.execute("accept_game", nil)
	f.execute("accept_game", nil)

	assert.Eventually(t, func() bool { return f.screen.calls.Load() >= 4 },
		time.Second, time.Millisecond)
	assert.Empty(t, f.sup.Keys())

	// let both watchers match and wind down
	f.screen.found.Store(true)
}

func TestQueueUpWithoutPath(t *testing.T) {
	f := newFixture(t)
	f.acts.cfg.GamePath = ""

	f.execute("queue_up", nil)

	require.Len(t, f.out.all(), 1)
	assert.Contains(t, f.out.all()[0], "no game path configured")
}

func TestExitTerminatesImmediately(t *testing.T) {
	f := newFixture(t)

	var code = -1
	f.acts.exit = func(c int) { code = c }

	f.execute("exit", nil)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"o7"}, f.out.all())
}

func TestCloseComputer(t *testing.T) {
	f := newFixture(t)

	var powered bool
	f.acts.powerOff = func() error { powered = true; return nil }

	f.execute("close_computer", nil)

	assert.True(t, powered)
	assert.Equal(t, []string{"o7"}, f.out.all())
}
