package tmux

import (
	"context"
	"strconv"
	"strings"

	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// paneFormat is the list-panes format string. Field order must match
// parsePaneLine and pane.RawPane.
const paneFormat = "#{pane_id}|#{pane_active}|#{pane_current_command}|" +
	"#{pane_title}|#{session_name}|#{window_index}|#{window_name}|" +
	"#{pane_index}|#{pane_tty}|#{pane_pid}|#{pane_current_path}|" +
	"#{window_zoomed_flag}|#{pane_width}|#{pane_height}|#{pane_start_command}"

const paneFieldCount = 15

// captureLineBudget bounds how much scrollback one capture pulls in.
const captureLineBudget = 10

// Repository reads pane state for one session.
type Repository struct {
	client  *Client
	session string
}

// NewRepository creates a repository bound to a session. An empty session
// targets the client's current session.
func NewRepository(client *Client, session string) *Repository {
	return &Repository{client: client, session: session}
}

// Session returns the bound session name.
func (r *Repository) Session() string { return r.session }

// DiscoverPanes lists every pane of the session across all windows.
func (r *Repository) DiscoverPanes(ctx context.Context) ([]pane.RawPane, error) {
	args := []string{"list-panes", "-F", paneFormat}
	if r.session != "" {
		args = append(args, "-s", "-t", r.session)
	} else {
		args = append(args, "-s")
	}

	out, err := r.client.RunContext(ctx, args...)
	if err != nil {
		return nil, fault.Wrap(fault.RepositoryError, err, "list panes")
	}

	var panes []pane.RawPane
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		raw, err := parsePaneLine(line)
		if err != nil {
			return nil, err
		}
		panes = append(panes, raw)
	}
	return panes, nil
}

// Capture grabs the rendered content of one pane, including a bounded
// slice of scrollback.
func (r *Repository) Capture(ctx context.Context, id pane.ID) (string, error) {
	out, err := r.client.RunContext(ctx,
		"capture-pane", "-t", id.String(), "-p", "-S", "-"+strconv.Itoa(captureLineBudget))
	if err != nil {
		return "", fault.Wrap(fault.RepositoryError, err, "capture pane %s", id)
	}
	return out, nil
}

// KillPane destroys a pane.
func (r *Repository) KillPane(ctx context.Context, id pane.ID) error {
	if err := r.client.RunSilentContext(ctx, "kill-pane", "-t", id.String()); err != nil {
		return fault.Wrap(fault.RepositoryError, err, "kill pane %s", id)
	}
	return nil
}

// SessionExists checks whether the bound session is present.
func (r *Repository) SessionExists(ctx context.Context) bool {
	if r.session == "" {
		return r.client.RunSilentContext(ctx, "display-message", "-p", "#{session_name}") == nil
	}
	return r.client.RunSilentContext(ctx, "has-session", "-t", r.session) == nil
}

// parsePaneLine splits one list-panes output line into a discovery record.
func parsePaneLine(line string) (pane.RawPane, error) {
	fields := strings.Split(line, "|")
	if len(fields) < paneFieldCount {
		return pane.RawPane{}, fault.New(fault.InvalidFormat,
			"pane line has %d fields, want %d: %q", len(fields), paneFieldCount, line)
	}
	// pane_start_command may itself contain the separator; rejoin the tail.
	if len(fields) > paneFieldCount {
		fields[paneFieldCount-1] = strings.Join(fields[paneFieldCount-1:], "|")
		fields = fields[:paneFieldCount]
	}

	windowIndex, err := strconv.Atoi(fields[5])
	if err != nil {
		return pane.RawPane{}, fault.Wrap(fault.InvalidFormat, err, "window index %q", fields[5])
	}
	paneIndex, err := strconv.Atoi(fields[7])
	if err != nil {
		return pane.RawPane{}, fault.Wrap(fault.InvalidFormat, err, "pane index %q", fields[7])
	}
	pid, err := strconv.Atoi(fields[9])
	if err != nil {
		return pane.RawPane{}, fault.Wrap(fault.InvalidFormat, err, "pane pid %q", fields[9])
	}
	width, err := strconv.Atoi(fields[12])
	if err != nil {
		return pane.RawPane{}, fault.Wrap(fault.InvalidFormat, err, "pane width %q", fields[12])
	}
	height, err := strconv.Atoi(fields[13])
	if err != nil {
		return pane.RawPane{}, fault.Wrap(fault.InvalidFormat, err, "pane height %q", fields[13])
	}

	return pane.RawPane{
		ID:             fields[0],
		Active:         fields[1] == "1",
		CurrentCommand: fields[2],
		Title:          fields[3],
		SessionName:    fields[4],
		WindowIndex:    windowIndex,
		WindowName:     fields[6],
		PaneIndex:      paneIndex,
		TTY:            fields[8],
		PID:            pid,
		CurrentPath:    fields[10],
		Zoomed:         fields[11] == "1",
		Width:          width,
		Height:         height,
		StartCommand:   fields[14],
	}, nil
}
