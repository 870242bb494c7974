// Package classify derives pane activity and worker state from capture
// samples. It compares two consecutive captures for output movement and
// applies content-pattern rules for prompts, completion and blocking.
package classify

import (
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"tmux-monitor/internal/fault"
)

// Sample is one capture of a pane's rendered content.
type Sample struct {
	Content string
	TakenAt time.Time
}

// ActivityStatus is the two-sample comparison verdict.
type ActivityStatus string

const (
	// ActivityNotEvaluated is the mandatory initial state before two
	// samples exist.
	ActivityNotEvaluated ActivityStatus = "not_evaluated"
	// ActivityWorking means the normalized content changed between samples.
	ActivityWorking ActivityStatus = "working"
	// ActivityIdle means the normalized content did not change.
	ActivityIdle ActivityStatus = "idle"
)

// InputFieldStatus describes the box-drawn prompt row, if any.
type InputFieldStatus string

const (
	// InputNone means no box-drawn prompt row was found.
	InputNone InputFieldStatus = "no_input_field"
	// InputEmpty means the prompt row exists and holds only whitespace.
	InputEmpty InputFieldStatus = "empty"
	// InputHasText means the prompt row holds typed characters.
	InputHasText InputFieldStatus = "has_input"
)

// WorkerStatusKind tags the derived worker state.
type WorkerStatusKind string

const (
	StatusIdle       WorkerStatusKind = "idle"
	StatusWorking    WorkerStatusKind = "working"
	StatusBlocked    WorkerStatusKind = "blocked"
	StatusDone       WorkerStatusKind = "done"
	StatusTerminated WorkerStatusKind = "terminated"
	StatusUnknown    WorkerStatusKind = "unknown"
)

// WorkerStatus is the derived worker state with an optional detail
// (result, reason, or last-known output excerpt).
type WorkerStatus struct {
	Kind   WorkerStatusKind
	Detail string
}

// Icon returns the visual indicator used in status reports.
func (k WorkerStatusKind) Icon() string {
	switch k {
	case StatusWorking:
		return "⚡" // lightning
	case StatusIdle:
		return "\U0001f4a4" // zzz
	case StatusDone:
		return "✅" // check mark
	case StatusBlocked:
		return "⛔" // no entry
	case StatusTerminated:
		return "✖" // heavy x
	default:
		return "❔" // question mark
	}
}

// Normalize canonicalizes capture content for comparison: CRLF becomes LF,
// trailing whitespace is stripped per line, and the whole text is trimmed.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Activity compares two samples. A nil previous sample always yields
// ActivityNotEvaluated.
func Activity(prev *Sample, curr Sample) ActivityStatus {
	if prev == nil {
		return ActivityNotEvaluated
	}
	if Normalize(prev.Content) != Normalize(curr.Content) {
		return ActivityWorking
	}
	return ActivityIdle
}

// ChangeDetail returns the first chunk of text inserted between two
// captures, for use as the Working status detail. Empty when nothing
// was inserted (deletions and reflows only).
func ChangeDetail(prev, curr string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(Normalize(prev), Normalize(curr), false)
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffInsert {
			continue
		}
		detail := strings.TrimSpace(StripANSI(d.Text))
		if detail != "" {
			return detail
		}
	}
	return ""
}

// InputField inspects the last three lines of a capture for the box-drawn
// prompt row. Captures with fewer than three lines are unusable.
func InputField(content string) (InputFieldStatus, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) < 3 {
		return InputNone, fault.New(fault.InvalidInput,
			"capture has %d lines, need at least 3 for input-field detection", len(lines))
	}

	for _, line := range lines[len(lines)-3:] {
		status, found := inspectPromptRow(StripANSI(line))
		if found {
			return status, nil
		}
	}
	return InputNone, nil
}

// inspectPromptRow checks a single line for the "│ > … │" prompt row and
// classifies the text between the marker and the right border.
func inspectPromptRow(line string) (InputFieldStatus, bool) {
	markerAt := strings.Index(line, promptMarker)
	if markerAt < 0 {
		return InputNone, false
	}
	rest := line[markerAt+len(promptMarker):]
	borderAt := strings.LastIndex(rest, boxBorder)
	if borderAt < 0 {
		return InputNone, false
	}
	if strings.TrimSpace(rest[:borderAt]) == "" {
		return InputEmpty, true
	}
	return InputHasText, true
}

// WorkerStatusFor applies the derivation table, evaluated in order:
// pane-gone signals dominate, then activity combined with content markers.
func WorkerStatusFor(activity ActivityStatus, content string) WorkerStatus {
	clean := StripANSI(content)

	if IsPaneGone(clean) {
		return WorkerStatus{Kind: StatusTerminated, Detail: "gone"}
	}

	switch activity {
	case ActivityNotEvaluated:
		return WorkerStatus{Kind: StatusUnknown}
	case ActivityIdle:
		if HasCompletionMarker(clean) {
			return WorkerStatus{Kind: StatusDone, Detail: "completed"}
		}
		return WorkerStatus{Kind: StatusIdle}
	default: // ActivityWorking
		if HasWaitingMarker(clean) {
			return WorkerStatus{Kind: StatusBlocked, Detail: "waiting"}
		}
		return WorkerStatus{Kind: StatusWorking}
	}
}
