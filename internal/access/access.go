// Package access resolves what a signed-in user may do on a UI path.
//
// Permissions are granted per path prefix. A request path is governed by the
// longest prefix that matches it literally, so "/projects" also governs
// "/projects-archive".
package access

import "strings"

// Action is one of the operations a permission entry can allow.
type Action uint8

const (
	View Action = iota
	Create
	Edit
	Delete
	Print
)

var actionNames = [...]string{
	View:   "view",
	Create: "create",
	Edit:   "edit",
	Delete: "delete",
	Print:  "print",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction maps the lowercase action name to an Action.
func ParseAction(s string) (Action, bool) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), true
		}
	}
	return View, false
}

// PermissionEntry lists the actions allowed under one path prefix.
type PermissionEntry struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	Print  bool `json:"print"`
}

// Allows reports whether the entry grants the action.
func (e PermissionEntry) Allows(a Action) bool {
	switch a {
	case View:
		return e.View
	case Create:
		return e.Create
	case Edit:
		return e.Edit
	case Delete:
		return e.Delete
	case Print:
		return e.Print
	}
	return false
}

// FullAccess grants every action.
func FullAccess() PermissionEntry {
	return PermissionEntry{View: true, Create: true, Edit: true, Delete: true, Print: true}
}

// Grants maps a path prefix to its permission entry.
type Grants map[string]PermissionEntry

// Clone returns an independent copy of g.
func (g Grants) Clone() Grants {
	if g == nil {
		return nil
	}
	out := make(Grants, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// User is the principal the resolver decides for.
type User struct {
	ID          string
	Name        string
	IsAdmin     bool
	Permissions Grants
}

// Paths every authenticated user may open.
const (
	RootPath      = "/"
	DashboardPath = "/dashboard"
)

// HasPermission reports whether user may perform action on path.
//
// A nil user is denied everything and an admin is allowed everything. The
// root and dashboard paths are open to any authenticated user. Otherwise the
// longest matching prefix decides; with no matching prefix the answer is no.
// Two distinct keys of equal length cannot both prefix the same path, so the
// longest match is unique.
func HasPermission(user *User, path string, action Action) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin {
		return true
	}
	if path == RootPath || path == DashboardPath {
		return true
	}

	best := -1
	var entry PermissionEntry
	for prefix, e := range user.Permissions {
		if len(prefix) > best && strings.HasPrefix(path, prefix) {
			best = len(prefix)
			entry = e
		}
	}
	if best < 0 {
		return false
	}
	return entry.Allows(action)
}
