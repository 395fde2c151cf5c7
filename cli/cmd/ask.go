package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/docent/adapter"
	"github.com/pithecene-io/docent/cli/config"
	"github.com/pithecene-io/docent/cli/render"
	"github.com/pithecene-io/docent/cli/tui"
	"github.com/pithecene-io/docent/runtime"
	"github.com/pithecene-io/docent/types"
)

// Exit codes of the ask command.
const (
	exitCompleted = 0
	exitErrored   = 1
	exitCancelled = 2
)

// updateBuffer is the subscription buffer of live presenters. A presenter
// re-reads the log snapshot on every signal, so a dropped signal loses nothing.
const updateBuffer = 64

// AskCommand returns the ask command.
func AskCommand() *cli.Command {
	flags := append(BackendFlags(),
		&cli.IntFlag{
			Name:    "top-k",
			Aliases: []string{"k"},
			Usage:   "Number of documents the agent retrieves (default from config, else 5)",
		},
		&cli.BoolFlag{
			Name:  "report-cancel",
			Usage: "Append an error event when the session is cancelled",
		},
	)
	return &cli.Command{
		Name:      "ask",
		Usage:     "Stream an agent answer for a prompt",
		ArgsUsage: "<prompt>",
		Flags:     append(flags, notifyFlags()...),
		Action:    askAction,
	}
}

func askAction(c *cli.Context) error {
	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if prompt == "" {
		return cli.Exit("a prompt is required: docent ask <prompt>", exitErrored)
	}

	b, err := newBackend(c, "ask")
	if err != nil {
		return err
	}
	defer b.finish(c)

	notifier, err := buildAdapter(c, b.cfg)
	if err != nil {
		return fmt.Errorf("invalid adapter config: %w", err)
	}
	if notifier != nil {
		defer func() { _ = notifier.Close() }()
	}

	session := runtime.NewStreamSession(b.client, runtime.SessionOptions{
		Logger:             b.logger.WithComponent("session"),
		Collector:          b.collector,
		ReportCancellation: c.Bool("report-cancel"),
	})
	req := types.AgentRequest{
		Prompt: prompt,
		TopK:   config.ResolveTopK(c.Int("top-k"), b.cfg),
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Subscribe before starting so no event is appended unobserved.
	updates, unsubscribe := session.Log().Subscribe(updateBuffer)
	defer unsubscribe()

	done := make(chan types.SessionState, 1)
	go func() {
		done <- session.Start(ctx, req)
	}()

	if c.Bool("tui") {
		if err := tui.RunSession(session, updates, prompt, b.collector.Snapshot); err != nil {
			session.Cancel()
			<-done
			return fmt.Errorf("tui failed: %w", err)
		}
		state := <-done
		if err := b.renderer.Render(render.Transcript(session.Events())); err != nil {
			return err
		}
		return finishAsk(session, state, prompt, notifier, b)
	}

	if err := streamEvents(b.renderer.NewEventWriter(), session.Log(), updates); err != nil {
		session.Cancel()
		<-done
		return err
	}
	return finishAsk(session, <-done, prompt, notifier, b)
}

// streamEvents prints events in log order until the log closes.
func streamEvents(w *render.EventWriter, log *runtime.EventLog, updates <-chan types.Event) error {
	printed := 0
	flush := func() error {
		events := log.Snapshot()
		for _, ev := range events[printed:] {
			if err := w.Write(ev); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}
		}
		printed = len(events)
		return nil
	}
	for range updates {
		if err := flush(); err != nil {
			return err
		}
	}
	return flush()
}

// finishAsk publishes the completion notification and maps the terminal
// state to the command's exit code.
func finishAsk(session *runtime.StreamSession, state types.SessionState, prompt string, notifier adapter.Adapter, b *backend) error {
	if notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		adapter.Notify(ctx, notifier, adapter.NewSessionCompletedEvent(session, prompt, time.Now()), b.logger, b.collector)
		cancel()
	}
	return stateToExit(state, session.Err())
}

// stateToExit returns nil for a completed session and a cli.Exit otherwise.
func stateToExit(state types.SessionState, err error) error {
	switch state {
	case types.SessionStateCompleted:
		return nil
	case types.SessionStateCancelled:
		return cli.Exit("session cancelled", exitCancelled)
	default:
		msg := "session failed"
		var sessErr *runtime.SessionError
		if errors.As(err, &sessErr) {
			msg = fmt.Sprintf("session failed: %v", sessErr)
		}
		return cli.Exit(msg, exitErrored)
	}
}
