// Package monitor implements the monitoring cycle: pane discovery and
// naming, parallel capture, idle-pane clearing, and status reporting.
package monitor

import (
	"context"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/pane"
)

// Repository reads pane state from the multiplexer.
type Repository interface {
	DiscoverPanes(ctx context.Context) ([]pane.RawPane, error)
	Capture(ctx context.Context, id pane.ID) (string, error)
	KillPane(ctx context.Context, id pane.ID) error
}

// Communicator injects keystrokes and text into panes.
type Communicator interface {
	SendMessage(ctx context.Context, id pane.ID, text string) error
	SendCommand(ctx context.Context, id pane.ID, text string) error
	SendKey(ctx context.Context, id pane.ID, key string) error
	SendClearCommand(ctx context.Context, id pane.ID, tok *cancel.Token) error
	StartInteractiveIfAbsent(ctx context.Context, p *pane.Pane, tok *cancel.Token) (bool, error)
}
