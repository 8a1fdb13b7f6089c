// Package access decides what a session may see: capability checks over the
// closed set of roles, the route guard, and navigation filtering. Every
// function here is a pure predicate over session state.
package access

import (
	"github.com/sufyan2618/project-management/pkg/types"
)

// Capability is something a role may do in the client
type Capability string

const (
	ViewDashboard  Capability = "view_dashboard"
	ViewProjects   Capability = "view_projects"
	ManageProjects Capability = "manage_projects"
	ManageTasks    Capability = "manage_tasks"
	AssignTasks    Capability = "assign_tasks"
	ListUsers      Capability = "list_users"
	ViewOwnTasks   Capability = "view_own_tasks"
)

var grants = map[types.Role][]Capability{
	types.RoleAdmin: {ViewDashboard, ViewProjects, ManageProjects, ManageTasks, AssignTasks, ListUsers},
	types.RoleUser:  {ViewDashboard, ViewProjects, ManageTasks, ViewOwnTasks},
}

// Can reports whether role holds capability c. Unknown roles hold nothing.
func Can(role types.Role, c Capability) bool {
	for _, g := range grants[role] {
		if g == c {
			return true
		}
	}
	return false
}

// RoleAllowed reports whether role is in allowed. An empty set allows every
// known role.
func RoleAllowed(role types.Role, allowed []types.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
