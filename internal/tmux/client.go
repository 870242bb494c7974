// Package tmux shells out to the tmux binary and adapts its pane listing,
// capture and key-injection commands to the monitor's interfaces.
package tmux

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"tmux-monitor/internal/fault"
)

// Client runs tmux commands, optionally on a remote host over ssh.
type Client struct {
	Remote string // "user@host" or empty for local
}

// NewClient creates a tmux client.
func NewClient(remote string) *Client {
	return &Client{Remote: remote}
}

// DefaultClient is the local client.
var DefaultClient = NewClient("")

// Run executes a tmux command and returns trimmed stdout.
func (c *Client) Run(args ...string) (string, error) {
	return c.RunContext(context.Background(), args...)
}

// RunContext executes a tmux command with cancellation support.
func (c *Client) RunContext(ctx context.Context, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Remote == "" {
		return runBinary(ctx, "tmux", args...)
	}

	// OpenSSH sends a single command string to the remote shell, so the
	// argv must be re-quoted. "--" keeps Remote from parsing as an option.
	remoteCmd := buildRemoteShellCommand("tmux", args...)
	return runBinary(ctx, "ssh", "--", c.Remote, remoteCmd)
}

// RunSilent executes a tmux command and discards stdout.
func (c *Client) RunSilent(args ...string) error {
	_, err := c.Run(args...)
	return err
}

// RunSilentContext executes a tmux command with cancellation support,
// discarding stdout.
func (c *Client) RunSilentContext(ctx context.Context, args ...string) error {
	_, err := c.RunContext(ctx, args...)
	return err
}

// IsInstalled checks whether tmux is available on the target host.
func (c *Client) IsInstalled() bool {
	if c.Remote == "" {
		_, err := exec.LookPath("tmux")
		return err == nil
	}
	return c.RunSilent("-V") == nil
}

// ShellQuote returns a POSIX-shell-safe single-quoted string.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	// Close-quote, escape single quote, reopen: ' -> '\''.
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func buildRemoteShellCommand(command string, args ...string) string {
	parts := make([]string, 0, 1+len(args))
	parts = append(parts, command)
	for _, arg := range args {
		parts = append(parts, ShellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func runBinary(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fault.Wrap(fault.CommandExecutionFailed, err,
			"%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
