package monitor

import (
	"context"
	"sync"
	"time"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

func sampleOf(content string) classify.Sample {
	return classify.Sample{Content: content, TakenAt: time.Now()}
}

// fakeRepo serves canned discovery and capture data. Captures for a pane
// are consumed as a queue; the last entry repeats.
type fakeRepo struct {
	mu          sync.Mutex
	panes       []pane.RawPane
	captures    map[pane.ID][]string
	captureErr  map[pane.ID]error
	killed      []pane.ID
	discoveries int
	onCapture   func(id pane.ID)
}

func newFakeRepo(panes ...pane.RawPane) *fakeRepo {
	return &fakeRepo{
		panes:      panes,
		captures:   make(map[pane.ID][]string),
		captureErr: make(map[pane.ID]error),
	}
}

func (f *fakeRepo) queueCapture(id pane.ID, contents ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captures[id] = append(f.captures[id], contents...)
}

func (f *fakeRepo) DiscoverPanes(context.Context) ([]pane.RawPane, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoveries++
	out := make([]pane.RawPane, len(f.panes))
	copy(out, f.panes)
	return out, nil
}

func (f *fakeRepo) Capture(_ context.Context, id pane.ID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCapture != nil {
		f.onCapture(id)
	}
	if err := f.captureErr[id]; err != nil {
		return "", err
	}
	queue := f.captures[id]
	if len(queue) == 0 {
		return "", fault.New(fault.RepositoryError, "can't find pane %s", id)
	}
	content := queue[0]
	if len(queue) > 1 {
		f.captures[id] = queue[1:]
	}
	return content, nil
}

func (f *fakeRepo) KillPane(_ context.Context, id pane.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, id)
	return nil
}

// sentItem records one communicator call.
type sentItem struct {
	pane pane.ID
	kind string // "message", "command", "key", "clear"
	text string
}

// fakeComm records everything sent to panes.
type fakeComm struct {
	mu   sync.Mutex
	sent []sentItem
}

func (f *fakeComm) record(id pane.ID, kind, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentItem{pane: id, kind: kind, text: text})
}

func (f *fakeComm) SendMessage(_ context.Context, id pane.ID, text string) error {
	f.record(id, "message", text)
	return nil
}

func (f *fakeComm) SendCommand(_ context.Context, id pane.ID, text string) error {
	f.record(id, "command", text)
	return nil
}

func (f *fakeComm) SendKey(_ context.Context, id pane.ID, key string) error {
	f.record(id, "key", key)
	return nil
}

func (f *fakeComm) SendClearCommand(_ context.Context, id pane.ID, _ *cancel.Token) error {
	f.record(id, "clear", "/clear")
	return nil
}

func (f *fakeComm) StartInteractiveIfAbsent(_ context.Context, p *pane.Pane, _ *cancel.Token) (bool, error) {
	f.record(p.ID(), "start", "")
	return true, nil
}

func (f *fakeComm) sentOfKind(kind string) []sentItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentItem
	for _, s := range f.sent {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// emptyPromptBox is a capture showing an idle pane with an empty input.
const emptyPromptBox = "output\n╭──────────╮\n│ >        │\n╰──────────╯"

// clearedPrompt is a capture showing a successfully cleared pane.
const clearedPrompt = "one\ntwo\n> "

func shrinkDelays() func() {
	oldSettle, oldRetry, oldEscape, oldRecovery := directSettle, retrySleep, escapeGap, recoveryGap
	directSettle = 0
	retrySleep = 0
	escapeGap = 0
	recoveryGap = 0
	return func() {
		directSettle, retrySleep, escapeGap, recoveryGap = oldSettle, oldRetry, oldEscape, oldRecovery
	}
}
