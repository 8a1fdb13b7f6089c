package access

import "github.com/sufyan2618/project-management/pkg/types"

// NavItem is a sidebar entry
type NavItem struct {
	Name  string       `json:"name"`
	Href  string       `json:"href"`
	Roles []types.Role `json:"-"`
}

// Navigation is the full sidebar before filtering
var Navigation = []NavItem{
	{Name: "Dashboard", Href: DashboardPath, Roles: []types.Role{types.RoleAdmin, types.RoleUser}},
	{Name: "Projects", Href: ProjectsPath, Roles: []types.Role{types.RoleAdmin, types.RoleUser}},
	{Name: "My Tasks", Href: TasksPath, Roles: []types.Role{types.RoleUser}},
}

// NavFor returns the entries visible to role
func NavFor(role types.Role) []NavItem {
	var out []NavItem
	for _, item := range Navigation {
		if RoleAllowed(role, item.Roles) {
			out = append(out, item)
		}
	}
	return out
}
