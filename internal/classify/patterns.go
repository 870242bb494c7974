package classify

import (
	"regexp"
	"strings"
)

// ansiEscapeRegex matches ANSI escape sequences for stripping.
// Includes CSI sequences (with private mode ?) and OSC sequences.
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]|\x1b\][^\a\x1b]*(\a|\x1b\\)`)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// Box-drawn prompt row markers. A pane with an interactive input field
// renders its prompt as "│ > … │".
const (
	promptMarker = "│ >"
	boxBorder    = "│"
)

// completionMarkers indicate a finished task in idle output.
var completionMarkers = []string{
	"completed",
	"✓ done", // ✓ Done
	"✅",      // ✅
}

// waitingMarkers indicate output that is moving but blocked on someone.
var waitingMarkers = []string{
	"waiting for",
	"paused",
	"press any key",
}

// paneGoneMarkers indicate the capture transport reported a missing pane.
var paneGoneMarkers = []string{
	"no pane",
	"can't find pane",
}

// promptTailRegex matches a bare trailing prompt after a successful clear.
var promptTailRegex = regexp.MustCompile(`>\s*$`)

// cursorTailRegex matches the cursor-only tail some UIs leave behind.
var cursorTailRegex = regexp.MustCompile(`\x{23bf}\s*$`) // ⎿

func containsAnyFold(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// HasCompletionMarker reports whether content carries a completion signal.
func HasCompletionMarker(content string) bool {
	return containsAnyFold(content, completionMarkers)
}

// HasWaitingMarker reports whether content carries a blocked/waiting signal.
func HasWaitingMarker(content string) bool {
	return containsAnyFold(content, waitingMarkers)
}

// IsPaneGone reports whether content (or a transport error message) says
// the pane no longer exists.
func IsPaneGone(content string) bool {
	return containsAnyFold(content, paneGoneMarkers)
}

// CountClearCommands counts "/clear" occurrences in normalized content.
// More than one means the clear command accumulated instead of executing.
func CountClearCommands(content string) int {
	return strings.Count(Normalize(content), "/clear")
}

// LooksCleared reports whether a post-clear capture shows a bare prompt:
// a trailing "> ", a cursor-only tail, empty content, or the interactive
// banner with at most one residual "/clear".
func LooksCleared(content string) bool {
	clean := Normalize(StripANSI(content))
	if clean == "" {
		return true
	}
	if promptTailRegex.MatchString(clean) || cursorTailRegex.MatchString(clean) {
		return true
	}
	if strings.Contains(strings.ToLower(clean), "claude") && CountClearCommands(content) <= 1 {
		return true
	}
	return false
}
