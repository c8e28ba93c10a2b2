package assistant

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"aide/internal/action"
	"aide/internal/bus"
	"aide/internal/config"
	"aide/internal/jobs"
	"aide/internal/mail"
	"aide/internal/screen"
	"aide/internal/weather"
)

// mailJobKey tracks the periodic mailbox poll. Exactly one poller may
// run at a time; the accept-game watcher is deliberately not tracked
// this way (see acceptGame).
const mailJobKey = "check_new_emails"

// Asker answers free questions.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Mailbox lists unread messages.
type Mailbox interface {
	FetchNew(ctx context.Context) ([]mail.Message, error)
}

// Forecaster resolves places and reports current weather.
type Forecaster interface {
	CoordinatesForCity(ctx context.Context, name string) (weather.Location, error)
	WeatherFor(ctx context.Context, lat, lon float64) (weather.Report, error)
	Locate(ctx context.Context) (weather.Location, error)
}

// ScreenReader captures the desktop and finds text on it.
type ScreenReader interface {
	Capture(ctx context.Context) ([]byte, error)
	FindText(ctx context.Context, image []byte, target string) (screen.Box, bool, error)
}

// Pointer drives the mouse.
type Pointer interface {
	MoveTo(ctx context.Context, x, y int) error
	Click(ctx context.Context) error
	Jiggle(ctx context.Context) error
}

// Publisher pushes events to the hub; may be a nil *bus.Bus.
type Publisher interface {
	Publish(ev bus.Event) error
}

// Actions bundles every registered command with its collaborators.
type Actions struct {
	cfg    config.Config
	out    Output
	ask    Asker
	mail   Mailbox
	fc     Forecaster
	screen ScreenReader
	mouse  Pointer
	sup    *jobs.Supervisor
	events Publisher

	// process-level effects, swappable in tests
	exit     func(code int)
	powerOff func() error
	launch   func(path string) error
}

type Deps struct {
	Config  config.Config
	Out     Output
	Ask     Asker
	Mail    Mailbox
	Weather Forecaster
	Screen  ScreenReader
	Mouse   Pointer
	Sup     *jobs.Supervisor
	Events  Publisher
}

func NewActions(d Deps) *Actions {
	return &Actions{
		cfg:    d.Config,
		out:    d.Out,
		ask:    d.Ask,
		mail:   d.Mail,
		fc:     d.Weather,
		screen: d.Screen,
		mouse:  d.Mouse,
		sup:    d.Sup,
		events: d.Events,
		exit:   os.Exit,
		powerOff: func() error {
			return exec.Command("systemctl", "poweroff").Run()
		},
		launch: func(path string) error {
			return exec.Command("xdg-open", path).Start()
		},
	}
}

type askArgs struct {
	Question string `json:"question"`
}

type weatherArgs struct {
	City string `json:"city"`
}

type noArgs struct{}

// RegisterAll registers every command. The registration order is the
// order help lists them in.
func (a *Actions) RegisterAll(reg *action.Registry) error {
	type entry struct {
		spec     action.Spec
		register func(spec action.Spec) error
	}

	entries := []entry{
		{
			spec: action.Spec{
				Name:        "help",
				Description: "list every available command",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, func(c action.Context, _ noArgs) error {
					return a.help(c, reg)
				})
			},
		},
		{
			spec: action.Spec{
				Name:        "ask_question",
				Description: "answer a free-form question",
				Params: []action.Param{
					{Name: "question", Type: "string", Required: true},
				},
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.askQuestion)
			},
		},
		{
			spec: action.Spec{
				Name:        "check_new_emails",
				Description: "read out unread mail once",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, func(c action.Context, _ noArgs) error {
					return a.checkNewEmails(c)
				})
			},
		},
		{
			spec: action.Spec{
				Name:        "start_checking_new_emails",
				Description: "poll the mailbox periodically in the background",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.startCheckingNewEmails)
			},
		},
		{
			spec: action.Spec{
				Name:        "stop_checking_new_emails",
				Description: "stop the background mailbox poll",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.stopCheckingNewEmails)
			},
		},
		{
			spec: action.Spec{
				Name:        "weather",
				Description: "current weather for a city, or here when no city is given",
				Params: []action.Param{
					{Name: "city", Type: "string", Default: ""},
				},
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.weather)
			},
		},
		{
			spec: action.Spec{
				Name:        "accept_game",
				Description: "watch the screen and click the accept prompt when it appears",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.acceptGame)
			},
		},
		{
			spec: action.Spec{
				Name:        "idle_mouse",
				Description: "nudge the mouse to keep the session awake",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.idleMouse)
			},
		},
		{
			spec: action.Spec{
				Name:        "queue_up",
				Description: "launch the game",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.queueUp)
			},
		},
		{
			spec: action.Spec{
				Name:        "close_computer",
				Description: "shut the machine down",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.closeComputer)
			},
		},
		{
			spec: action.Spec{
				Name:        "exit",
				Description: "terminate the assistant immediately",
			},
			register: func(s action.Spec) error {
				return action.Register(reg, s, a.exitProgram)
			},
		},
	}

	for _, e := range entries {
		if err := e.register(e.spec); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actions) help(c action.Context, reg *action.Registry) error {
	names := reg.Names()
	return a.out.Emit(c, fmt.Sprintf("Available commands are: %s.", strings.Join(names, ", ")))
}

func (a *Actions) askQuestion(c action.Context, args askArgs) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	answer, err := a.ask.Ask(ctx, args.Question)
	if err != nil {
		return fmt.Errorf("could not retrieve an answer: %w", err)
	}
	return a.out.Emit(c, answer)
}

func (a *Actions) checkNewEmails(c action.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	messages, err := a.mail.FetchNew(ctx)
	if err != nil {
		return fmt.Errorf("could not check the mailbox: %w", err)
	}

	if err := a.out.Emit(c, fmt.Sprintf("You have %d new messages.", len(messages))); err != nil {
		return err
	}
	for _, m := range messages {
		if err := a.out.Emit(c, mail.Format(m)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Actions) startCheckingNewEmails(c action.Context, _ noArgs) error {
	started := a.sup.Start(mailJobKey, a.cfg.MailPoll, func() error {
		if err := a.checkNewEmails(c); err != nil {
			return err
		}
		a.publish("mail_checked", "")
		return nil
	})
	if !started {
		return a.out.Emit(c, "Already checking new emails.")
	}
	return a.out.Emit(c, fmt.Sprintf("Checking new emails every %v.", a.cfg.MailPoll))
}

func (a *Actions) stopCheckingNewEmails(c action.Context, _ noArgs) error {
	if !a.sup.Stop(mailJobKey) {
		return a.out.Emit(c, "Not currently checking new emails.")
	}
	return a.out.Emit(c, "Stopped checking new emails.")
}

func (a *Actions) weather(c action.Context, args weatherArgs) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		loc weather.Location
		err error
	)
	if args.City == "" {
		loc, err = a.fc.Locate(ctx)
	} else {
		loc, err = a.fc.CoordinatesForCity(ctx, args.City)
	}
	if err != nil {
		return fmt.Errorf("could not retrieve coordinates: %w", err)
	}

	report, err := a.fc.WeatherFor(ctx, loc.Lat, loc.Lon)
	if err != nil {
		return fmt.Errorf("could not retrieve weather: %w", err)
	}

	return a.out.Emit(c, fmt.Sprintf("The weather for %s is %s with %.1f°C.",
		loc.City, report.Description, report.Temperature))
}

// acceptGame spawns a self-terminating watcher. Watchers are not keyed
// or deduplicated the way the mail poll is: calling this twice runs two
// independent watchers, each owning its own capture and pointer handles.
func (a *Actions) acceptGame(c action.Context, _ noArgs) error {
	a.sup.Watch(a.cfg.WatchPoll, func() (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		img, err := a.screen.Capture(ctx)
		if err != nil {
			return false, err
		}

		box, found, err := a.screen.FindText(ctx, img, a.cfg.AcceptText)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}

		x, y := box.Center()
		if err := a.mouse.MoveTo(ctx, x, y); err != nil {
			return true, err
		}
		if err := a.mouse.Click(ctx); err != nil {
			return true, err
		}
		a.publish("game_accepted", "")
		return true, nil
	})

	return a.out.Emit(c, "Watching for the accept prompt.")
}

func (a *Actions) idleMouse(c action.Context, _ noArgs) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.mouse.Jiggle(ctx); err != nil {
		return fmt.Errorf("could not move the mouse: %w", err)
	}
	return a.out.Emit(c, "Idled the mouse.")
}

func (a *Actions) queueUp(c action.Context, _ noArgs) error {
	if a.cfg.GamePath == "" {
		return fmt.Errorf("no game path configured")
	}
	if err := a.launch(a.cfg.GamePath); err != nil {
		return fmt.Errorf("could not launch the game: %w", err)
	}
	return a.out.Emit(c, "Queueing up.")
}

func (a *Actions) closeComputer(c action.Context, _ noArgs) error {
	a.out.Emit(c, "o7")
	if err := a.powerOff(); err != nil {
		return fmt.Errorf("could not shut down: %w", err)
	}
	return nil
}

// exitProgram terminates immediately, no cleanup, running jobs and all.
func (a *Actions) exitProgram(c action.Context, _ noArgs) error {
	a.out.Emit(c, "o7")
	a.exit(0)
	return nil
}

func (a *Actions) publish(kind, detail string) {
	if a.events == nil {
		return
	}
	// hub delivery is best-effort
	_ = a.events.Publish(bus.Event{Source: "aide", Kind: kind, Detail: detail})
}
