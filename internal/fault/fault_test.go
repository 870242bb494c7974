package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindPropagatesThroughWrapping(t *testing.T) {
	base := New(InvalidFormat, "bad pane id %q", "x1")
	wrapped := fmt.Errorf("discover: %w", base)

	if !Is(wrapped, InvalidFormat) {
		t.Error("Is should see the kind through fmt.Errorf wrapping")
	}
	if KindOf(wrapped) != InvalidFormat {
		t.Errorf("KindOf = %v", KindOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(RepositoryError, cause, "list panes")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should survive errors.Is")
	}
	if got := err.Error(); got != "repository_error: list panes: exit status 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOfUncategorized(t *testing.T) {
	if KindOf(errors.New("plain")) != UnexpectedError {
		t.Error("plain errors should map to UnexpectedError")
	}
	if Is(errors.New("plain"), InvalidState) {
		t.Error("plain errors should not match any kind")
	}
}
