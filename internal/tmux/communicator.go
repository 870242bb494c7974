package tmux

import (
	"context"
	"regexp"
	"time"

	"tmux-monitor/internal/cancel"
	"tmux-monitor/internal/fault"
	"tmux-monitor/internal/pane"
)

// sendKeysChunkSize bounds one send-keys payload. Very long literals can
// overflow the server's command buffer, so text is split.
const sendKeysChunkSize = 4096

// keystrokeGap separates staged keystrokes so the receiving program has
// time to process each one.
const keystrokeGap = 200 * time.Millisecond

// interactiveShellRegex matches pane commands that are a bare shell, where
// an interactive agent can be started.
var interactiveShellRegex = regexp.MustCompile(`^(zsh|bash|sh|fish)$`)

// interactiveAgentRegex matches pane commands already running the agent.
var interactiveAgentRegex = regexp.MustCompile(`claude|cld`)

// Communicator injects keystrokes and text into panes.
type Communicator struct {
	client       *Client
	startCommand string
}

// NewCommunicator creates a communicator. startCommand is the program
// launched by StartInteractiveIfAbsent; empty means "cld".
func NewCommunicator(client *Client, startCommand string) *Communicator {
	if startCommand == "" {
		startCommand = "cld"
	}
	return &Communicator{client: client, startCommand: startCommand}
}

// SendMessage types literal text into a pane without submitting it.
func (c *Communicator) SendMessage(ctx context.Context, id pane.ID, text string) error {
	for _, chunk := range splitChunks(text, sendKeysChunkSize) {
		if err := c.client.RunSilentContext(ctx, "send-keys", "-t", id.String(), "-l", chunk); err != nil {
			return fault.Wrap(fault.CommunicationFailed, err, "send text to %s", id)
		}
	}
	return nil
}

// SendCommand types text into a pane and submits it with Enter. The
// single escape character is sent as the Escape key instead.
func (c *Communicator) SendCommand(ctx context.Context, id pane.ID, text string) error {
	if text == "\x1b" {
		return c.SendKey(ctx, id, "Escape")
	}
	if err := c.SendMessage(ctx, id, text); err != nil {
		return err
	}
	return c.SendKey(ctx, id, "Enter")
}

// SendKey presses one named key (Enter, Escape, Tab, C-l, ...).
func (c *Communicator) SendKey(ctx context.Context, id pane.ID, key string) error {
	if err := c.client.RunSilentContext(ctx, "send-keys", "-t", id.String(), key); err != nil {
		return fault.Wrap(fault.CommunicationFailed, err, "send key %s to %s", key, id)
	}
	return nil
}

// SendInterrupt delivers Ctrl-C to a pane.
func (c *Communicator) SendInterrupt(ctx context.Context, id pane.ID) error {
	return c.SendKey(ctx, id, "C-c")
}

// clearStep is one keystroke or literal of the clear macro, with an
// optional settle gap after it.
type clearStep struct {
	key  string
	text string
	wait bool
}

// clearMacroSteps is the staged clear sequence: two Escapes to leave any
// menu, Tab to refocus the input, then "/clear" submitted with Enter.
var clearMacroSteps = []clearStep{
	{key: "Escape", wait: true},
	{key: "Escape"},
	{key: "Tab", wait: true},
	{text: "/clear", wait: true},
	{key: "Enter"},
}

// SendClearCommand runs the staged clear macro. The gaps are preemptible
// through the token.
func (c *Communicator) SendClearCommand(ctx context.Context, id pane.ID, tok *cancel.Token) error {
	for _, step := range clearMacroSteps {
		var err error
		if step.key != "" {
			err = c.SendKey(ctx, id, step.key)
		} else {
			err = c.SendMessage(ctx, id, step.text)
		}
		if err != nil {
			return err
		}
		if step.wait {
			if interrupted := tok.Sleep(keystrokeGap); interrupted {
				return fault.New(fault.CancellationRequested, "clear macro interrupted")
			}
		}
	}
	return nil
}

// StartInteractiveIfAbsent launches the interactive agent in panes that
// are sitting at a bare shell. Panes already running the agent, or
// running something else entirely, are left alone.
func (c *Communicator) StartInteractiveIfAbsent(ctx context.Context, p *pane.Pane, tok *cancel.Token) (started bool, err error) {
	command := p.Info().CurrentCommand
	if interactiveAgentRegex.MatchString(command) {
		return false, nil
	}
	if !interactiveShellRegex.MatchString(command) {
		return false, nil
	}

	if err := c.SendMessage(ctx, p.ID(), c.startCommand); err != nil {
		return false, err
	}
	// Give the shell a beat before submitting so the text is not eaten
	// by a startup hook.
	if interrupted := tok.Sleep(500 * time.Millisecond); interrupted {
		return false, fault.New(fault.CancellationRequested, "startup interrupted")
	}
	if err := c.SendKey(ctx, p.ID(), "Enter"); err != nil {
		return false, err
	}
	return true, nil
}

func splitChunks(s string, size int) []string {
	if len(s) <= size {
		return []string{s}
	}
	var chunks []string
	for len(s) > size {
		cut := size
		// Do not split inside a multi-byte rune.
		for cut > 0 && !utf8RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, s[:cut])
		s = s[cut:]
	}
	return append(chunks, s)
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
