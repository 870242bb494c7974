package monitor

import (
	"context"

	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// KillAllPanes destroys every pane except the active one. The active pane
// survives so the session (and the operator's shell) stays alive.
func (e *Engine) KillAllPanes(ctx context.Context) (int, error) {
	if err := e.refreshPanes(ctx); err != nil {
		return 0, err
	}

	killed := 0
	for _, p := range e.panes.All() {
		if p.IsActive() {
			continue
		}
		if err := e.repo.KillPane(ctx, p.ID()); err != nil {
			e.log.Warn("kill %s: %v", p.ID(), err)
			continue
		}
		e.panes.Remove(p.ID())
		killed++
	}
	e.log.Info("killed %d panes", killed)
	return killed, nil
}

// ClearAllPanes forces the clear protocol on every worker pane, escalating
// to the hard-reset sequence when the strategy ladder fails.
func (e *Engine) ClearAllPanes(ctx context.Context) (int, error) {
	if err := e.refreshPanes(ctx); err != nil {
		return 0, err
	}
	if e.panes.Len() == 0 {
		return 0, fault.New(fault.InvalidState, "session has no panes")
	}

	cleared := 0
	for _, p := range e.panes.Workers() {
		outcome := e.clearer.ForceClear(ctx, e.tok, p)
		if outcome.Status == ClearSucceeded {
			cleared++
			continue
		}
		if e.tok.IsCancelled() {
			break
		}
		e.log.Warn("clear %s failed (%s), running recovery", p.ID(), outcome.Reason)
		if err := e.recoverPane(ctx, p); err != nil {
			e.log.Warn("recovery %s: %v", p.ID(), err)
			continue
		}
		cleared++
	}
	e.log.Info("cleared %d worker panes", cleared)
	return cleared, nil
}

func (e *Engine) recoverPane(ctx context.Context, p *pane.Pane) error {
	if err := e.clearer.Recover(ctx, e.tok, p.ID()); err != nil {
		return err
	}
	p.MarkCleared()
	return nil
}
