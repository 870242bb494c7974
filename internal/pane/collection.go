package pane

import (
	"tmux-monitor/internal/classify"
	"tmux-monitor/internal/fault"
)

// Collection owns the panes of one monitored session. It is not safe for
// concurrent use; the engine serializes access.
type Collection struct {
	panes map[ID]*Pane
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{panes: make(map[ID]*Pane)}
}

// Add inserts a pane. Duplicate ids are an error.
func (c *Collection) Add(p *Pane) error {
	if _, ok := c.panes[p.ID()]; ok {
		return fault.New(fault.IllegalState, "pane %s already registered", p.ID())
	}
	c.panes[p.ID()] = p
	return nil
}

// Remove drops a pane by id. Removing an unknown id is a no-op.
func (c *Collection) Remove(id ID) {
	delete(c.panes, id)
}

// Get looks up a pane by id.
func (c *Collection) Get(id ID) (*Pane, bool) {
	p, ok := c.panes[id]
	return p, ok
}

// Len returns the number of panes.
func (c *Collection) Len() int { return len(c.panes) }

// All returns the panes in numeric id order.
func (c *Collection) All() []*Pane {
	ids := make([]ID, 0, len(c.panes))
	for id := range c.panes {
		ids = append(ids, id)
	}
	SortIDs(ids)

	out := make([]*Pane, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.panes[id])
	}
	return out
}

// Active returns the focused pane, if any.
func (c *Collection) Active() (*Pane, bool) {
	for _, p := range c.panes {
		if p.IsActive() {
			return p, true
		}
	}
	return nil, false
}

// ByStatus returns panes whose derived status matches kind, in id order.
func (c *Collection) ByStatus(kind classify.WorkerStatusKind) []*Pane {
	var out []*Pane
	for _, p := range c.All() {
		if p.Status().Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// Workers returns the worker-like panes in id order.
func (c *Collection) Workers() []*Pane {
	var out []*Pane
	for _, p := range c.All() {
		if p.HasRole() && p.Role().Kind == WorkerLike {
			out = append(out, p)
		}
	}
	return out
}

// AssignRoles applies the role template to the panes in numeric id order.
// Panes that already hold a role keep it; the error from the first
// conflicting assignment is returned after the pass completes.
func (c *Collection) AssignRoles(template []string) error {
	var firstErr error
	for i, p := range c.All() {
		if p.HasRole() {
			continue
		}
		if err := p.AssignRole(RoleForIndex(template, i)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReplaceAll swaps the collection contents for a fresh discovery snapshot,
// carrying over capture history for panes that survived.
func (c *Collection) ReplaceAll(fresh []*Pane) {
	next := make(map[ID]*Pane, len(fresh))
	for _, p := range fresh {
		if existing, ok := c.panes[p.ID()]; ok {
			next[p.ID()] = existing
			continue
		}
		next[p.ID()] = p
	}
	c.panes = next
}
