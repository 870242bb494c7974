package monitor

import (
	"context"
	"testing"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/pane"
)

// idleWorker builds a worker pane classified idle with an empty prompt.
func idleWorker(t *testing.T, id string) *pane.Pane {
	t.Helper()
	p := makePane(t, id)
	if err := p.AssignRole(pane.Role{Name: "worker1", Kind: pane.WorkerLike}); err != nil {
		t.Fatal(err)
	}
	if err := p.ApplyCapture(sampleOf(emptyPromptBox)); err != nil {
		t.Fatal(err)
	}
	if err := p.ApplyCapture(sampleOf(emptyPromptBox)); err != nil {
		t.Fatal(err)
	}
	if !p.ShouldBeCleared() {
		t.Fatal("fixture pane should be clearable")
	}
	return p
}

func countEscapes(comm *fakeComm) int {
	escapes := 0
	for _, s := range comm.sentOfKind("key") {
		if s.text == "Escape" {
			escapes++
		}
	}
	return escapes
}

func TestClearSkipsIneligiblePane(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := makePane(t, "%1") // no role, never captured

	outcome := NewClearer(repo, comm, 3).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearSkipped {
		t.Fatalf("Status = %v, want skipped", outcome.Status)
	}
	if len(comm.sent) != 0 {
		t.Errorf("skipped pane must not be touched, sent %v", comm.sent)
	}
}

func TestClearDirectSuccess(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")
	repo.queueCapture("%4", clearedPrompt)

	outcome := NewClearer(repo, comm, 3).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearSucceeded {
		t.Fatalf("Status = %v (%s), want cleared", outcome.Status, outcome.Reason)
	}
	if outcome.Strategy != StrategyDirect || outcome.Retries != 0 {
		t.Errorf("strategy/retries = %v/%d, want direct/0", outcome.Strategy, outcome.Retries)
	}
	if p.ShouldBeCleared() {
		t.Error("cleared pane must not remain clearable")
	}
	if len(comm.sentOfKind("clear")) != 1 {
		t.Errorf("clear macro sent %d times, want 1", len(comm.sentOfKind("clear")))
	}
}

func TestClearSingleEscapeAfterDirectFailure(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")

	// Direct's verification shows leftover output; the single Escape works.
	repo.queueCapture("%4", "still busy output", clearedPrompt)

	outcome := NewClearer(repo, comm, 3).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearSucceeded {
		t.Fatalf("Status = %v (%s), want cleared", outcome.Status, outcome.Reason)
	}
	if outcome.Strategy != StrategySingleEscape || outcome.Retries != 1 {
		t.Errorf("strategy/retries = %v/%d, want single_escape/1",
			outcome.Strategy, outcome.Retries)
	}
	if escapes := countEscapes(comm); escapes != 1 {
		t.Errorf("escape presses = %d, want 1", escapes)
	}
}

func TestClearEscalatesToIncrementalEscape(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")

	// Direct and the single Escape fail their verifications; the
	// incremental strategy succeeds on its second press.
	repo.queueCapture("%4",
		"still busy output", "still busy output", "still busy output", clearedPrompt)

	outcome := NewClearer(repo, comm, 3).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearSucceeded {
		t.Fatalf("Status = %v (%s), want cleared", outcome.Status, outcome.Reason)
	}
	if outcome.Strategy != StrategyIncrementalEscape || outcome.Retries != 2 {
		t.Errorf("strategy/retries = %v/%d, want incremental_escape/2",
			outcome.Strategy, outcome.Retries)
	}
	// One Escape for the single strategy, two inside the incremental one.
	if escapes := countEscapes(comm); escapes != 3 {
		t.Errorf("escape presses = %d, want 3", escapes)
	}
}

func TestClearFailsAfterMaxRetries(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")
	repo.queueCapture("%4", "persistent junk")

	outcome := NewClearer(repo, comm, 2).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	if outcome.Retries != 1 {
		t.Errorf("Retries = %d, want 1", outcome.Retries)
	}
	if outcome.Reason != "cleared pattern absent" {
		t.Errorf("Reason = %q", outcome.Reason)
	}
	if p.ClearRetries() != 2 {
		t.Errorf("ClearRetries = %d, want 2", p.ClearRetries())
	}
}

func TestClearDetectsAccumulatedClearCommands(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")
	repo.queueCapture("%4", "> /clear\n> /clear")

	outcome := NewClearer(repo, comm, 1).Clear(context.Background(), cancel.NewToken(), p)
	if outcome.Status != ClearFailed {
		t.Fatalf("Status = %v, want failed", outcome.Status)
	}
	if outcome.Reason != "multiple /clear accumulated" {
		t.Errorf("Reason = %q", outcome.Reason)
	}
}

func TestClearHonorsCancellation(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	comm := &fakeComm{}
	p := idleWorker(t, "%4")

	tok := cancel.NewToken()
	tok.Cancel("shutdown")

	outcome := NewClearer(repo, comm, 3).Clear(context.Background(), tok, p)
	if outcome.Status != ClearFailed || outcome.Reason != "cancelled" {
		t.Fatalf("outcome = %+v, want failed/cancelled", outcome)
	}
	if len(comm.sent) != 0 {
		t.Errorf("cancelled clear must not send anything, sent %v", comm.sent)
	}
}

func TestRecoverSequence(t *testing.T) {
	defer shrinkDelays()()
	repo := newFakeRepo()
	repo.queueCapture("%4", clearedPrompt)
	comm := &fakeComm{}
	c := NewClearer(repo, comm, 3)

	if err := c.Recover(context.Background(), cancel.NewToken(), "%4"); err != nil {
		t.Fatalf("Recover: %v", err)
	}

	var kinds []string
	for _, s := range comm.sent {
		kinds = append(kinds, s.kind+":"+s.text)
	}
	want := []string{
		"key:Escape", "key:Enter", "message:clear", "key:Enter",
		"key:C-l", "message:reset", "key:Enter",
	}
	if len(kinds) != len(want) {
		t.Fatalf("sequence = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", kinds, want)
		}
	}
}
