package pane

import (
	"fmt"
	"strings"
)

// RoleKind splits roles into the two disjoint clearing classes.
type RoleKind string

const (
	// ManagerLike roles (main, manager*, secretary) are never cleared.
	ManagerLike RoleKind = "manager"
	// WorkerLike roles (worker*) are clearable when idle or done.
	WorkerLike RoleKind = "worker"
)

// Role is an ordinal label assigned to a pane at discovery.
type Role struct {
	Name string
	Kind RoleKind
}

// DefaultRoleTemplate is the ordered role template applied to panes sorted
// by numeric id. Indices beyond the template extend the worker sequence.
var DefaultRoleTemplate = []string{
	"main",
	"manager1",
	"manager2",
	"secretary",
	"worker1",
	"worker2",
	"worker3",
	"worker4",
}

// kindForName derives the role kind from its name.
func kindForName(name string) RoleKind {
	if strings.HasPrefix(name, "worker") {
		return WorkerLike
	}
	return ManagerLike
}

// RoleForIndex returns the role for position i in the numerically sorted
// pane list. Positions past the template continue the workerK sequence.
func RoleForIndex(template []string, i int) Role {
	if len(template) == 0 {
		template = DefaultRoleTemplate
	}
	if i < len(template) {
		name := template[i]
		return Role{Name: name, Kind: kindForName(name)}
	}

	managers := 0
	for _, name := range template {
		if kindForName(name) == ManagerLike {
			managers++
		}
	}
	return Role{Name: fmt.Sprintf("worker%d", i-managers+1), Kind: WorkerLike}
}
