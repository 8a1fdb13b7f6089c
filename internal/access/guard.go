package access

import (
	"strings"
	"time"

	"github.com/sufyan2618/project-management/internal/session"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Well-known paths
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
	ProjectsPath  = "/projects"
	TasksPath     = "/tasks"
)

// Decision is the outcome of a guard check
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard checks a session against a protected subtree. No valid session
// redirects to the login view; a valid session whose role is not in allowed
// redirects to the dashboard.
func Guard(st session.State, allowed []types.Role, now time.Time) Decision {
	if !st.Valid(now) {
		return Decision{RedirectTo: LoginPath}
	}
	if !RoleAllowed(st.Role(), allowed) {
		return Decision{RedirectTo: DashboardPath}
	}
	return Decision{Allowed: true}
}

// Route is one entry of the client's route table
type Route struct {
	Pattern  string
	Public   bool
	Roles    []types.Role
	Redirect string
}

// Routes is the view table. Order matters: the first match wins.
var Routes = []Route{
	{Pattern: LoginPath, Public: true},
	{Pattern: RegisterPath, Public: true},
	{Pattern: "/verify-email", Public: true},
	{Pattern: "/forgot-password", Public: true},
	{Pattern: "/reset-password", Public: true},
	{Pattern: "/", Redirect: DashboardPath},
	{Pattern: DashboardPath},
	{Pattern: ProjectsPath},
	{Pattern: ProjectsPath + "/:id"},
	{Pattern: TasksPath, Roles: []types.Role{types.RoleUser}},
}

// Match finds the route for path. Unknown paths resolve to a redirect to
// the dashboard.
func Match(path string) Route {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	for _, r := range Routes {
		if matchPattern(r.Pattern, path) {
			return r
		}
	}
	return Route{Pattern: "*", Redirect: DashboardPath}
}

// Resolve applies the route table and guard to a navigation: it returns the
// path the user ends up on.
func Resolve(st session.State, path string, now time.Time) string {
	r := Match(path)
	if r.Public {
		return path
	}
	d := Guard(st, nil, now)
	if !d.Allowed {
		return d.RedirectTo
	}
	if r.Redirect != "" {
		return r.Redirect
	}
	if d := Guard(st, r.Roles, now); !d.Allowed {
		return d.RedirectTo
	}
	return path
}

func matchPattern(pattern, path string) bool {
	pp := strings.Split(pattern, "/")
	sp := strings.Split(path, "/")
	if len(pp) != len(sp) {
		return false
	}
	for i := range pp {
		if strings.HasPrefix(pp[i], ":") {
			if sp[i] == "" {
				return false
			}
			continue
		}
		if pp[i] != sp[i] {
			return false
		}
	}
	return true
}
