package monitor

import (
	"context"
	"time"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// Strategy is one way of getting a pane back to a bare prompt.
type Strategy string

const (
	// StrategyDirect runs the full staged /clear macro, waits for the UI
	// to settle, then verifies.
	StrategyDirect Strategy = "direct"
	// StrategySingleEscape presses Escape once and verifies, for panes
	// stuck in a menu or confirmation.
	StrategySingleEscape Strategy = "single_escape"
	// StrategyIncrementalEscape presses Escape up to three times,
	// verifying after each press and stopping early on success.
	StrategyIncrementalEscape Strategy = "incremental_escape"
)

// maxIncrementalEscapes bounds the escape presses of the last strategy.
const maxIncrementalEscapes = 3

// ClearStatus is the outcome class of one clear attempt series.
type ClearStatus string

const (
	ClearSucceeded ClearStatus = "cleared"
	ClearFailed    ClearStatus = "failed"
	ClearSkipped   ClearStatus = "skipped"
)

// ClearOutcome reports what happened to one pane. Retries counts the
// failed attempts before the final one: 0 means first-try success.
type ClearOutcome struct {
	Pane     pane.ID
	Status   ClearStatus
	Strategy Strategy
	Retries  int
	Reason   string
}

// directSettle is how long a pane gets to redraw after the full clear
// macro before verification captures it. Variable so tests can shrink it.
var directSettle = 2 * time.Second

// retrySleep separates failed attempts from the next strategy.
var retrySleep = time.Second

// escapeGap separates repeated Escape presses.
var escapeGap = 200 * time.Millisecond

// Clearer drives the verified clear protocol against eligible panes.
type Clearer struct {
	repo       Repository
	comm       Communicator
	maxRetries int
}

// NewClearer creates a clearer. maxRetries bounds the strategy ladder;
// non-positive means 3.
func NewClearer(repo Repository, comm Communicator, maxRetries int) *Clearer {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Clearer{repo: repo, comm: comm, maxRetries: maxRetries}
}

func strategyFor(attempt int) Strategy {
	switch attempt {
	case 0:
		return StrategyDirect
	case 1:
		return StrategySingleEscape
	default:
		return StrategyIncrementalEscape
	}
}

// Clear runs the escalating clear protocol against one pane. Ineligible
// panes are skipped, never touched.
func (c *Clearer) Clear(ctx context.Context, tok *cancel.Token, p *pane.Pane) ClearOutcome {
	if !p.ShouldBeCleared() {
		return ClearOutcome{Pane: p.ID(), Status: ClearSkipped, Reason: "not eligible"}
	}
	return c.clearEligible(ctx, tok, p)
}

// ForceClear runs the protocol without the eligibility check. The
// clear-all administrative flow uses it against every worker pane.
func (c *Clearer) ForceClear(ctx context.Context, tok *cancel.Token, p *pane.Pane) ClearOutcome {
	return c.clearEligible(ctx, tok, p)
}

func (c *Clearer) clearEligible(ctx context.Context, tok *cancel.Token, p *pane.Pane) ClearOutcome {
	outcome := ClearOutcome{Pane: p.ID()}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		outcome.Retries = attempt
		outcome.Strategy = strategyFor(attempt)

		if tok.IsCancelled() {
			outcome.Status = ClearFailed
			outcome.Reason = "cancelled"
			return outcome
		}

		cleared, reason := c.runStrategy(ctx, tok, p.ID(), outcome.Strategy)
		if cleared {
			p.MarkCleared()
			outcome.Status = ClearSucceeded
			outcome.Reason = ""
			return outcome
		}
		outcome.Reason = reason
		p.IncrementClearRetries()

		if attempt < c.maxRetries-1 {
			if interrupted := tok.Sleep(retrySleep); interrupted {
				outcome.Status = ClearFailed
				outcome.Reason = "cancelled"
				return outcome
			}
		}
	}

	outcome.Status = ClearFailed
	return outcome
}

// runStrategy executes one strategy and reports whether verification saw
// a cleared pane.
func (c *Clearer) runStrategy(ctx context.Context, tok *cancel.Token, id pane.ID, s Strategy) (bool, string) {
	switch s {
	case StrategyDirect:
		if err := c.comm.SendClearCommand(ctx, id, tok); err != nil {
			return false, err.Error()
		}
		if interrupted := tok.Sleep(directSettle); interrupted {
			return false, "cancelled"
		}
		return c.verify(ctx, id)

	case StrategySingleEscape:
		if err := c.comm.SendKey(ctx, id, "Escape"); err != nil {
			return false, err.Error()
		}
		return c.verify(ctx, id)

	default: // StrategyIncrementalEscape
		reason := "cleared pattern absent"
		for i := 0; i < maxIncrementalEscapes; i++ {
			if err := c.comm.SendKey(ctx, id, "Escape"); err != nil {
				return false, err.Error()
			}
			cleared, r := c.verify(ctx, id)
			if cleared {
				return true, ""
			}
			reason = r
			if i < maxIncrementalEscapes-1 {
				if interrupted := tok.Sleep(escapeGap); interrupted {
					return false, "cancelled"
				}
			}
		}
		return false, reason
	}
}

// verify captures the pane and checks that it shows a bare prompt.
func (c *Clearer) verify(ctx context.Context, id pane.ID) (bool, string) {
	content, err := c.repo.Capture(ctx, id)
	if err != nil {
		return false, "verification capture failed: " + err.Error()
	}
	if classify.CountClearCommands(content) > 1 {
		return false, "multiple /clear accumulated"
	}
	if !classify.LooksCleared(content) {
		return false, "cleared pattern absent"
	}
	return true, ""
}

// recoverySteps is the hard-reset sequence for panes the strategy ladder
// could not clear. Only administrative flows use it.
var recoverySteps = []struct {
	key  string
	text string
}{
	{key: "Escape"},
	{key: "Enter"},
	{text: "clear"},
	{key: "Enter"},
	{key: "C-l"},
	{text: "reset"},
	{key: "Enter"},
}

// recoveryGap paces the hard-reset keystrokes.
var recoveryGap = 500 * time.Millisecond

// Recover runs the hard-reset sequence against one pane, then verifies.
func (c *Clearer) Recover(ctx context.Context, tok *cancel.Token, id pane.ID) error {
	for _, step := range recoverySteps {
		var err error
		if step.key != "" {
			err = c.comm.SendKey(ctx, id, step.key)
		} else {
			err = c.comm.SendMessage(ctx, id, step.text)
		}
		if err != nil {
			return err
		}
		if interrupted := tok.Sleep(recoveryGap); interrupted {
			return fault.New(fault.CancellationRequested, "recovery interrupted")
		}
	}
	if cleared, reason := c.verify(ctx, id); !cleared {
		return fault.New(fault.ValidationFailed, "recovery verification: %s", reason)
	}
	return nil
}
