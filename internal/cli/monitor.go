package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/config"
	"tmux-monitor/internal/events"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/monitor"
	"tmux-monitor/internal/output"
	"tmux-monitor/internal/tmux"
	"tmux-monitor/internal/watcher"
)

// runMonitor builds the engine from resolved options and runs it to
// completion or cancellation.
func runMonitor(ctx context.Context, opts config.Options) error {
	client := tmux.NewClient(opts.Remote)
	if !client.IsInstalled() {
		return output.NewCLIError("tmux is not available").
			WithHint("install tmux or check the --remote host")
	}

	repo := tmux.NewRepository(client, opts.Session)
	if !repo.SessionExists(ctx) {
		return output.NewCLIError("tmux session not found").
			WithCause("session " + opts.Session + " does not exist").
			WithHint("list sessions with: tmux ls")
	}

	comm := tmux.NewCommunicator(client, opts.StartCommand)
	log := output.NewStderrLogger()
	bus := events.NewBus(100)
	if opts.JSONStream {
		bus.EnableJSONStream(os.Stdout)
	}

	tok := cancel.NewToken()
	engine := monitor.NewEngine(repo, comm, tok, bus, log, opts)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		tok.Cancel("signal " + sig.String())
	}()

	switch {
	case opts.KillAllPanes:
		_, err := engine.KillAllPanes(ctx)
		return asCLIError(err)
	case opts.ClearAllPanes:
		_, err := engine.ClearAllPanes(ctx)
		return asCLIError(err)
	}

	if opts.InstructionFile != "" {
		w, err := watcher.New(opts.InstructionFile, func(string) {
			engine.NotifyInstructionsChanged()
		})
		if err != nil {
			log.Warn("instruction watcher: %v", err)
		} else {
			defer w.Close()
		}
	}

	return asCLIError(engine.Run(ctx))
}

// asCLIError maps engine faults to presentable CLI errors.
func asCLIError(err error) error {
	if err == nil {
		return nil
	}
	cliErr := output.NewCLIError(err.Error())
	switch {
	case fault.Is(err, fault.InvalidState):
		cliErr.WithHint("check the session layout with: tmux ls")
	case fault.Is(err, fault.CommandExecutionFailed):
		cliErr.WithHint("verify tmux is reachable: tmux -V")
	}
	return cliErr
}
