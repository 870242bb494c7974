// Package pane holds the pane value types, the pane aggregate, and the
// collection that owns all panes for one discovery snapshot.
package pane

import (
	"regexp"
	"sort"
	"strconv"

	"tmux-monitor/internal/fault"
)

// idRegex matches the tmux pane id form "%<digits>".
var idRegex = regexp.MustCompile(`^%\d+$`)

// ID is a validated tmux pane identifier such as "%0" or "%12".
// Ordering is numeric: %2 < %10.
type ID string

// ParseID validates and constructs a pane ID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fault.New(fault.EmptyInput, "pane id is empty")
	}
	if !idRegex.MatchString(s) {
		return "", fault.New(fault.InvalidFormat, "pane id %q does not match %%<digits>", s)
	}
	return ID(s), nil
}

// String returns the raw id.
func (id ID) String() string { return string(id) }

// Number extracts the numeric part of the id.
func (id ID) Number() int {
	n, _ := strconv.Atoi(string(id)[1:])
	return n
}

// Less orders ids numerically.
func (id ID) Less(other ID) bool { return id.Number() < other.Number() }

// SortIDs sorts a slice of ids numerically in place.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}
