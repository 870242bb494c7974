package monitor

import (
	"context"
	"os"
	"strings"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/config"
	"tmux-monitor/internal/events"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/output"
	"tmux-monitor/internal/pane"
)

// Engine owns one monitoring run: discovery, naming, the cycle loop, and
// termination on cancellation or the runtime cap.
type Engine struct {
	repo     Repository
	comm     Communicator
	orch     *Orchestrator
	clearer  *Clearer
	reporter *Reporter
	tracker  *RuntimeTracker
	tok      *cancel.Token
	bus      *events.Bus
	log      *output.Logger
	opts     config.Options

	panes     *pane.Collection
	prevKinds map[pane.ID]classify.WorkerStatusKind
	cycle     int

	instructionDirty chan struct{}
}

// NewEngine wires an engine from its collaborators.
func NewEngine(repo Repository, comm Communicator, tok *cancel.Token, bus *events.Bus, log *output.Logger, opts config.Options) *Engine {
	return &Engine{
		repo:             repo,
		comm:             comm,
		orch:             NewOrchestrator(repo, opts.CaptureParallelism, opts.MaxCaptureRetries),
		clearer:          NewClearer(repo, comm, opts.MaxClearRetries),
		reporter:         NewReporter(comm),
		tracker:          NewRuntimeTracker(opts.ScheduledStart, opts.MaxRuntime),
		tok:              tok,
		bus:              bus,
		log:              log,
		opts:             opts,
		panes:            pane.NewCollection(),
		prevKinds:        make(map[pane.ID]classify.WorkerStatusKind),
		instructionDirty: make(chan struct{}, 1),
	}
}

// Token returns the run's cancellation token.
func (e *Engine) Token() *cancel.Token { return e.tok }

// NotifyInstructionsChanged flags the instruction file for resending on
// the next cycle boundary. Safe to call from watcher goroutines.
func (e *Engine) NotifyInstructionsChanged() {
	select {
	case e.instructionDirty <- struct{}{}:
	default:
	}
}

// Run executes the monitoring loop until cancellation, the runtime cap,
// or (in one-shot mode) the first completed cycle.
func (e *Engine) Run(ctx context.Context) error {
	e.publish(events.TypeMonitorStarted, map[string]interface{}{
		"continuous": e.opts.Continuous,
		"deadline":   e.tracker.Deadline(),
	})
	defer func() {
		e.publish(events.TypeMonitorStopped, map[string]interface{}{
			"cycles":  e.cycle,
			"elapsed": e.tracker.Elapsed().String(),
		})
	}()

	if e.opts.ScheduledStart != nil {
		e.log.Info("waiting for scheduled start %s",
			e.opts.ScheduledStart.Format("15:04"))
		if interrupted := e.tracker.WaitForStart(e.tok); interrupted {
			e.log.Info("cancelled before scheduled start: %s", e.tok.Reason())
			return nil
		}
	}

	if err := e.refreshPanes(ctx); err != nil {
		return err
	}
	if e.panes.Len() == 0 {
		return fault.New(fault.InvalidState, "session has no panes")
	}
	e.log.Info("monitoring %d panes", e.panes.Len())

	if e.opts.StartInteractive {
		e.startInteractivePanes(ctx)
	}
	if e.opts.InstructionFile != "" {
		if err := e.sendInstructions(ctx); err != nil {
			e.log.Warn("send instructions: %v", err)
		}
	}

	for {
		e.cycle++
		if err := e.runCycle(ctx); err != nil {
			if fault.Is(err, fault.CancellationRequested) || e.tok.IsCancelled() {
				e.log.Info("cycle %d aborted: %s", e.cycle, e.tok.Reason())
				return nil
			}
			return err
		}

		if !e.opts.Continuous {
			return nil
		}
		if e.tracker.HasExceededLimit() {
			e.log.Info("runtime cap reached after %s", e.tracker.Elapsed())
			e.tok.Cancel("runtime limit exceeded")
			return nil
		}
		if interrupted := e.tok.Sleep(e.opts.CycleInterval); interrupted {
			e.log.Info("stopping: %s", e.tok.Reason())
			return nil
		}

		select {
		case <-e.instructionDirty:
			if err := e.sendInstructions(ctx); err != nil {
				e.log.Warn("resend instructions: %v", err)
			}
		default:
		}
	}
}

// runCycle executes one capture, clear, report pass over the panes found
// at startup. Panes that vanish mid-run are marked terminated by the
// sweep; the set itself only changes on the next run's discovery.
func (e *Engine) runCycle(ctx context.Context) error {
	summary, err := e.orch.Run(ctx, e.tok, e.panes.All())
	if err != nil {
		return err
	}
	for id, capErr := range summary.Errors {
		e.log.Warn("capture %s: %v", id, capErr)
	}

	cleared := e.clearIdleWorkers(ctx)
	changes := e.countStatusChanges()

	e.publish(events.TypeCycleCompleted, map[string]interface{}{
		"cycle":    e.cycle,
		"captured": summary.Successful,
		"changed":  len(summary.Changed),
		"cleared":  len(cleared),
		"duration": summary.Duration.String(),
	})

	if len(cleared) == 0 && changes == 0 {
		e.log.Debug("cycle %d: quiet, report suppressed", e.cycle)
		return nil
	}

	stats := CycleStats{Cycle: e.cycle, Cleared: cleared, StatusChanges: changes}
	if err := e.reporter.Send(ctx, e.panes, stats); err != nil {
		if fault.Is(err, fault.BusinessRuleViolation) {
			e.log.Debug("cycle %d: %v", e.cycle, err)
			return nil
		}
		e.log.Warn("cycle %d report: %v", e.cycle, err)
		return nil
	}
	e.publish(events.TypeReportSent, map[string]interface{}{"cycle": e.cycle})
	return nil
}

// refreshPanes re-discovers the session and folds the result into the
// collection, keeping tracked state for surviving panes.
func (e *Engine) refreshPanes(ctx context.Context) error {
	raws, err := e.repo.DiscoverPanes(ctx)
	if err != nil {
		return err
	}

	fresh := make([]*pane.Pane, 0, len(raws))
	for _, raw := range raws {
		p, err := pane.FromDiscovery(raw)
		if err != nil {
			e.log.Warn("discovery: %v", err)
			continue
		}
		fresh = append(fresh, p)
	}
	e.panes.ReplaceAll(fresh)
	return e.panes.AssignRoles(e.opts.RoleTemplate)
}

func (e *Engine) clearIdleWorkers(ctx context.Context) []pane.ID {
	var cleared []pane.ID
	for _, p := range e.panes.Workers() {
		if !p.ShouldBeCleared() {
			continue
		}
		outcome := e.clearer.Clear(ctx, e.tok, p)
		switch outcome.Status {
		case ClearSucceeded:
			cleared = append(cleared, p.ID())
			e.log.Info("cleared %s (%s, %d retries)", p.ID(), outcome.Strategy, outcome.Retries)
			e.publish(events.TypePaneCleared, map[string]interface{}{
				"pane":     p.ID().String(),
				"strategy": string(outcome.Strategy),
				"retries":  outcome.Retries,
			})
		case ClearFailed:
			e.log.Warn("clear %s failed after %d retries: %s", p.ID(), outcome.Retries, outcome.Reason)
			e.publish(events.TypeClearFailed, map[string]interface{}{
				"pane":   p.ID().String(),
				"reason": outcome.Reason,
			})
		}
	}
	return cleared
}

// countStatusChanges diffs status kinds against the previous cycle.
func (e *Engine) countStatusChanges() int {
	changes := 0
	next := make(map[pane.ID]classify.WorkerStatusKind, e.panes.Len())
	for _, p := range e.panes.All() {
		kind := p.Status().Kind
		next[p.ID()] = kind
		if prev, seen := e.prevKinds[p.ID()]; seen && prev != kind {
			changes++
		}
	}
	e.prevKinds = next
	return changes
}

func (e *Engine) startInteractivePanes(ctx context.Context) {
	for _, p := range e.panes.All() {
		started, err := e.comm.StartInteractiveIfAbsent(ctx, p, e.tok)
		if err != nil {
			e.log.Warn("start interactive in %s: %v", p.ID(), err)
			continue
		}
		if started {
			e.log.Info("started interactive agent in %s", p.ID())
		}
	}
}

// sendInstructions types the instruction file into the main pane, or the
// active pane when no main role exists yet.
func (e *Engine) sendInstructions(ctx context.Context) error {
	data, err := os.ReadFile(e.opts.InstructionFile)
	if err != nil {
		return fault.Wrap(fault.RepositoryError, err, "read instructions %s", e.opts.InstructionFile)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fault.New(fault.EmptyInput, "instruction file %s is empty", e.opts.InstructionFile)
	}

	target, ok := e.mainPane()
	if !ok {
		return fault.New(fault.InvalidState, "no pane to send instructions to")
	}
	e.log.Info("sending instructions to %s", target.ID())
	return e.comm.SendCommand(ctx, target.ID(), text)
}

func (e *Engine) mainPane() (*pane.Pane, bool) {
	for _, p := range e.panes.All() {
		if p.HasRole() && p.Role().Name == "main" {
			return p, true
		}
	}
	return e.panes.Active()
}

func (e *Engine) publish(eventType string, data map[string]interface{}) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{Type: eventType, Session: e.opts.Session, Data: data})
}
