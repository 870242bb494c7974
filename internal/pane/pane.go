package pane

import (
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
)

// RawPane is the untyped discovery record produced by listing panes.
// Field order matches the list format string used by the repository.
type RawPane struct {
	ID             string
	Active         bool
	CurrentCommand string
	Title          string
	SessionName    string
	WindowIndex    int
	WindowName     string
	PaneIndex      int
	TTY            string
	PID            int
	CurrentPath    string
	Zoomed         bool
	Width          int
	Height         int
	StartCommand   string
}

// Pane is the aggregate tracking one pane across monitoring cycles. All
// mutation goes through methods so the capture history and derived state
// stay consistent.
type Pane struct {
	id     ID
	active bool
	info   RawPane

	role         Role
	roleSet      bool
	prev         *classify.Sample
	curr         *classify.Sample
	activity     classify.ActivityStatus
	input        classify.InputFieldStatus
	status       classify.WorkerStatus
	clearRetries int
}

// FromDiscovery builds a Pane from a raw discovery record. New panes start
// with no capture history and an unknown status.
func FromDiscovery(raw RawPane) (*Pane, error) {
	id, err := ParseID(raw.ID)
	if err != nil {
		return nil, err
	}
	return &Pane{
		id:       id,
		active:   raw.Active,
		info:     raw,
		activity: classify.ActivityNotEvaluated,
		input:    classify.InputNone,
		status:   classify.WorkerStatus{Kind: classify.StatusUnknown},
	}, nil
}

// ID returns the pane identifier.
func (p *Pane) ID() ID { return p.id }

// IsActive reports whether the pane had focus at discovery time.
func (p *Pane) IsActive() bool { return p.active }

// Info returns the raw discovery record.
func (p *Pane) Info() RawPane { return p.info }

// Role returns the assigned role. The zero Role means unassigned.
func (p *Pane) Role() Role { return p.role }

// HasRole reports whether AssignRole has run.
func (p *Pane) HasRole() bool { return p.roleSet }

// AssignRole names the pane. Reassigning is an error so the ordinal
// mapping stays stable for the run.
func (p *Pane) AssignRole(role Role) error {
	if p.roleSet {
		return fault.New(fault.IllegalState,
			"pane %s already has role %q", p.id, p.role.Name)
	}
	p.role = role
	p.roleSet = true
	return nil
}

// ApplyCapture rolls the capture history forward and re-derives the
// activity, input-field and worker status from the new sample. A sample
// too short to classify is rejected and the history stays untouched.
func (p *Pane) ApplyCapture(s classify.Sample) error {
	input, err := classify.InputField(s.Content)
	if err != nil {
		return err
	}

	p.prev = p.curr
	p.curr = &s
	p.input = input

	p.activity = classify.Activity(p.prev, *p.curr)

	status := classify.WorkerStatusFor(p.activity, s.Content)
	if status.Kind == classify.StatusWorking && p.prev != nil {
		if detail := classify.ChangeDetail(p.prev.Content, s.Content); detail != "" {
			status.Detail = detail
		}
	}
	p.status = status
	return nil
}

// MarkTerminated records that the pane disappeared from the session.
func (p *Pane) MarkTerminated(reason string) {
	p.status = classify.WorkerStatus{Kind: classify.StatusTerminated, Detail: reason}
}

// MarkCleared resets the capture history after a verified clear so the
// next cycle re-evaluates the pane from scratch.
func (p *Pane) MarkCleared() {
	p.prev = nil
	p.curr = nil
	p.activity = classify.ActivityNotEvaluated
	p.input = classify.InputNone
	p.status = classify.WorkerStatus{Kind: classify.StatusUnknown}
	p.clearRetries = 0
}

// IncrementClearRetries bumps and returns the failed-clear counter.
func (p *Pane) IncrementClearRetries() int {
	p.clearRetries++
	return p.clearRetries
}

// ClearRetries returns the current failed-clear counter.
func (p *Pane) ClearRetries() int { return p.clearRetries }

// Activity returns the two-sample comparison verdict.
func (p *Pane) Activity() classify.ActivityStatus { return p.activity }

// InputField returns the prompt-row classification.
func (p *Pane) InputField() classify.InputFieldStatus { return p.input }

// Status returns the derived worker status.
func (p *Pane) Status() classify.WorkerStatus { return p.status }

// CurrentContent returns the latest capture content, or "" before the
// first capture.
func (p *Pane) CurrentContent() string {
	if p.curr == nil {
		return ""
	}
	return p.curr.Content
}

// IsWorking reports whether the derived status is working.
func (p *Pane) IsWorking() bool { return p.status.Kind == classify.StatusWorking }

// IsIdle reports whether the derived status is idle.
func (p *Pane) IsIdle() bool { return p.status.Kind == classify.StatusIdle }

// IsDone reports whether the derived status is done.
func (p *Pane) IsDone() bool { return p.status.Kind == classify.StatusDone }

// IsTerminated reports whether the pane is gone.
func (p *Pane) IsTerminated() bool { return p.status.Kind == classify.StatusTerminated }

// CanAssignTask reports whether the pane is safe to hand new work: it has
// been evaluated, its prompt is empty, and it is not mid-task.
func (p *Pane) CanAssignTask() bool {
	if p.activity == classify.ActivityNotEvaluated {
		return false
	}
	if p.input != classify.InputEmpty {
		return false
	}
	switch p.status.Kind {
	case classify.StatusIdle, classify.StatusDone, classify.StatusTerminated:
		return true
	default:
		return false
	}
}

// ShouldBeCleared reports whether the clear protocol applies: worker-like
// role, idle or done, and an empty prompt row.
func (p *Pane) ShouldBeCleared() bool {
	if !p.roleSet || p.role.Kind != WorkerLike {
		return false
	}
	if p.input != classify.InputEmpty {
		return false
	}
	return p.status.Kind == classify.StatusIdle || p.status.Kind == classify.StatusDone
}
