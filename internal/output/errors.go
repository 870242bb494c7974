package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// CLIError is a structured command-line error with remediation hints.
type CLIError struct {
	Message string // What failed
	Cause   string // Why it failed (optional)
	Hint    string // Fastest command/action to fix it (optional)
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a CLI error with just a message.
func NewCLIError(msg string) *CLIError {
	return &CLIError{Message: msg}
}

// WithCause adds a cause.
func (e *CLIError) WithCause(cause string) *CLIError {
	e.Cause = cause
	return e
}

// WithHint adds a remediation hint.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatCLIError renders the error for stderr, with color when stderr is
// a terminal and NO_COLOR is unset.
func FormatCLIError(e *CLIError) string {
	useColor := isStderrTerminal() && os.Getenv("NO_COLOR") == ""

	var sb strings.Builder

	if useColor {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		causeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

		sb.WriteString(errorStyle.Render("Error: "))
		sb.WriteString(e.Message)
		sb.WriteString("\n")
		if e.Cause != "" {
			sb.WriteString(causeStyle.Render("  Cause: "))
			sb.WriteString(e.Cause)
			sb.WriteString("\n")
		}
		if e.Hint != "" {
			sb.WriteString(hintStyle.Render("  Hint: "))
			sb.WriteString(e.Hint)
			sb.WriteString("\n")
		}
		return sb.String()
	}

	sb.WriteString("Error: ")
	sb.WriteString(e.Message)
	sb.WriteString("\n")
	if e.Cause != "" {
		sb.WriteString("  Cause: ")
		sb.WriteString(e.Cause)
		sb.WriteString("\n")
	}
	if e.Hint != "" {
		sb.WriteString("  Hint: ")
		sb.WriteString(e.Hint)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintCLIError writes a formatted error to stderr.
func PrintCLIError(e *CLIError) {
	fmt.Fprint(os.Stderr, FormatCLIError(e))
}
