package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// reportIDListWidth bounds the pane-id list on one report line.
const reportIDListWidth = 60

// CycleStats feeds the report with what this cycle did.
type CycleStats struct {
	Cycle         int
	Cleared       []pane.ID
	StatusChanges int
}

// Reporter posts cycle summaries into the active pane. Times render in
// Asia/Tokyo, falling back to the host zone if the database is missing.
type Reporter struct {
	comm Communicator
	loc  *time.Location
	now  func() time.Time
}

// NewReporter creates a reporter.
func NewReporter(comm Communicator) *Reporter {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.Local
	}
	return &Reporter{comm: comm, loc: loc, now: time.Now}
}

// Send builds the report and injects it into the active pane's input
// without submitting it. Without an active pane the report is skipped.
func (r *Reporter) Send(ctx context.Context, panes *pane.Collection, stats CycleStats) error {
	active, ok := panes.Active()
	if !ok {
		return fault.New(fault.BusinessRuleViolation, "no active pane to report to")
	}
	return r.comm.SendMessage(ctx, active.ID(), r.Build(panes, stats))
}

// Build renders the report. Line shapes are fixed; consumers parse them.
func (r *Reporter) Build(panes *pane.Collection, stats CycleStats) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📊 [%s] tmux-monitor Status Report\n",
		r.now().In(r.loc).Format("15:04:05"))
	if n := len(stats.Cleared); n > 0 {
		fmt.Fprintf(&sb, "🧹 Cleared %d IDLE panes\n", n)
	}
	if stats.StatusChanges > 0 {
		fmt.Fprintf(&sb, "📈 %d pane status changes detected\n", stats.StatusChanges)
	}

	sb.WriteString("\n📋 Current Status:\n")
	fmt.Fprintf(&sb, "  Total: %d panes\n", panes.Len())
	statusLine(&sb, "⚡", "Working", panes.ByStatus(classify.StatusWorking))
	statusLine(&sb, "💤", "Idle", panes.ByStatus(classify.StatusIdle))
	statusLine(&sb, "✅", "Done", panes.ByStatus(classify.StatusDone))

	assignable := 0
	for _, p := range panes.All() {
		if p.CanAssignTask() {
			assignable++
		}
	}
	fmt.Fprintf(&sb, "  🎯 Available for tasks: %d", assignable)

	return sb.String()
}

func statusLine(sb *strings.Builder, icon, label string, panes []*pane.Pane) {
	if len(panes) == 0 {
		return
	}
	ids := make([]pane.ID, 0, len(panes))
	for _, p := range panes {
		ids = append(ids, p.ID())
	}
	fmt.Fprintf(sb, "  %s %s (%d): %s\n", icon, label, len(panes), idList(ids))
}

// idList joins ids in numeric order, truncated with an ellipsis when the
// line would run past the report width.
func idList(ids []pane.ID) string {
	pane.SortIDs(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	joined := strings.Join(parts, ", ")
	if runewidth.StringWidth(joined) <= reportIDListWidth {
		return joined
	}
	return truncate.StringWithTail(joined, reportIDListWidth, "…")
}
