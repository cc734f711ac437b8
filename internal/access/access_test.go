package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allActions = []Action{View, Create, Edit, Delete, Print}

func TestHasPermissionNilUser(t *testing.T) {
	for _, path := range []string{"/", "/dashboard", "/projects", ""} {
		for _, a := range allActions {
			assert.False(t, HasPermission(nil, path, a), "%s %s", path, a)
		}
	}
}

func TestHasPermissionAdmin(t *testing.T) {
	admin := &User{IsAdmin: true, Permissions: Grants{"/projects": {}}}
	for _, path := range []string{"/projects", "/never-granted", "/settings/reset", ""} {
		for _, a := range allActions {
			assert.True(t, HasPermission(admin, path, a), "%s %s", path, a)
		}
	}
}

func TestHasPermissionUniversalPaths(t *testing.T) {
	users := []*User{
		{},
		{Permissions: Grants{"/": {}}},
		{Permissions: Grants{"/dashboard": {View: false}}},
	}
	for _, u := range users {
		for _, a := range allActions {
			assert.True(t, HasPermission(u, "/", a))
			assert.True(t, HasPermission(u, "/dashboard", a))
		}
	}
}

func TestHasPermissionLongestPrefix(t *testing.T) {
	u := &User{Permissions: Grants{
		"/a":   {View: true},
		"/a/b": {View: false, Edit: true},
	}}

	assert.False(t, HasPermission(u, "/a/b/c", View))
	assert.True(t, HasPermission(u, "/a/b/c", Edit))
	assert.True(t, HasPermission(u, "/a/x", View))
	assert.False(t, HasPermission(u, "/a/x", Edit))
}

func TestHasPermissionCases(t *testing.T) {
	u := &User{Permissions: Grants{
		"/projects":            {View: true, Create: true},
		"/inventory":           {View: true},
		"/inventory/movements": {View: true, Print: true},
	}}

	tests := []struct {
		name   string
		path   string
		action Action
		want   bool
	}{
		{"exact key", "/projects", View, true},
		{"literal prefix is not segment aware", "/projects-archive", Create, true},
		{"missing action defaults to false", "/projects", Delete, false},
		{"no matching key", "/expenses", View, false},
		{"shorter key governs sibling", "/inventory/items", Print, false},
		{"longer key grants print", "/inventory/movements/export", Print, true},
		{"key longer than path never matches", "/inv", View, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(u, tt.path, tt.action))
		})
	}
}

func TestParseAction(t *testing.T) {
	for _, a := range allActions {
		got, ok := ParseAction(a.String())
		require.True(t, ok)
		assert.Equal(t, a, got)
	}
	_, ok := ParseAction("approve")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Action(42).String())
}

func TestVisibleNavigation(t *testing.T) {
	u := &User{Permissions: Grants{
		"/inventory/movements": {View: true},
		"/salaries":            {View: true},
	}}

	nav := VisibleNavigation(u, Navigation)

	var paths []string
	for _, item := range nav {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"/dashboard", "/inventory", "/hr"}, paths)
	require.Len(t, nav[1].Children, 1)
	assert.Equal(t, "/inventory/movements", nav[1].Children[0].Path)
	require.Len(t, nav[2].Children, 1)
	assert.Equal(t, "/salaries", nav[2].Children[0].Path)

	assert.Empty(t, VisibleNavigation(nil, Navigation))
	assert.Len(t, VisibleNavigation(&User{IsAdmin: true}, Navigation), len(Navigation))
}
