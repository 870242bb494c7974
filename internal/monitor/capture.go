package monitor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// defaultCaptureParallelism bounds concurrent capture subprocesses.
const defaultCaptureParallelism = 4

// CaptureSummary describes one capture sweep.
type CaptureSummary struct {
	Processed  int
	Successful int
	Changed    []pane.ID
	Errors     map[pane.ID]error
	Duration   time.Duration
}

// Orchestrator runs the capture phase of a cycle: grab every pane's
// content in parallel, then apply the samples serially so classification
// stays deterministic.
type Orchestrator struct {
	repo        Repository
	parallelism int
	maxRetries  int
	now         func() time.Time
}

// NewOrchestrator creates a capture orchestrator. Non-positive knobs take
// the defaults.
func NewOrchestrator(repo Repository, parallelism, maxRetries int) *Orchestrator {
	if parallelism <= 0 {
		parallelism = defaultCaptureParallelism
	}
	if maxRetries <= 0 {
		maxRetries = 2
	}
	return &Orchestrator{repo: repo, parallelism: parallelism, maxRetries: maxRetries, now: time.Now}
}

// Run captures every pane in the collection. The token is checked before
// each dispatch; a mid-sweep cancel lets in-flight captures drain but
// starts no new ones and discards the sweep.
func (o *Orchestrator) Run(ctx context.Context, tok *cancel.Token, panes []*pane.Pane) (CaptureSummary, error) {
	started := o.now()
	summary := CaptureSummary{Errors: make(map[pane.ID]error)}

	if tok.IsCancelled() {
		return summary, fault.New(fault.CancellationRequested,
			"capture sweep skipped: %s", tok.Reason())
	}

	type result struct {
		content string
		takenAt time.Time
		err     error
	}
	results := make(map[pane.ID]*result, len(panes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)

	for _, p := range panes {
		if tok.IsCancelled() {
			break
		}
		p := p
		g.Go(func() error {
			// A goroutine queued behind the limit re-checks on entry so a
			// mid-sweep cancel starts no further captures.
			if tok.IsCancelled() {
				return nil
			}
			content, err := o.captureWithRetry(gctx, p.ID())
			mu.Lock()
			results[p.ID()] = &result{content: content, takenAt: o.now(), err: err}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; they record them per pane.
	_ = g.Wait()

	if tok.IsCancelled() {
		return summary, fault.New(fault.InvalidState,
			"capture sweep cancelled: %s", tok.Reason())
	}

	for _, p := range panes {
		summary.Processed++
		res := results[p.ID()]
		if res == nil {
			continue
		}
		if res.err != nil {
			if classify.IsPaneGone(res.err.Error()) {
				p.MarkTerminated("gone")
				summary.Successful++
				continue
			}
			summary.Errors[p.ID()] = res.err
			continue
		}

		if err := p.ApplyCapture(classify.Sample{Content: res.content, TakenAt: res.takenAt}); err != nil {
			summary.Errors[p.ID()] = err
			continue
		}
		summary.Successful++
		if p.Activity() == classify.ActivityWorking {
			summary.Changed = append(summary.Changed, p.ID())
		}
	}

	pane.SortIDs(summary.Changed)
	summary.Duration = o.now().Sub(started)
	return summary, nil
}

func (o *Orchestrator) captureWithRetry(ctx context.Context, id pane.ID) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		content, err := o.repo.Capture(ctx, id)
		if err == nil {
			return content, nil
		}
		lastErr = err
		// A missing pane will not come back; stop retrying.
		if classify.IsPaneGone(err.Error()) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
