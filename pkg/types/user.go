package types

// Role is the closed set of account roles issued by the API.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is a user profile as returned by /api/auth/me and login.
type User struct {
	ID        int    `json:"id" yaml:"id"`
	Email     string `json:"email" yaml:"email"`
	FullName  string `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Role      Role   `json:"role" yaml:"role"`
	CreatedAt Time   `json:"created_at" yaml:"-"`
}

// DisplayName returns the full name, or the email when no name is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// Initials returns up to two upper-case initials of the display name.
func (u *User) Initials() string {
	var out []rune
	start := true
	for _, r := range u.DisplayName() {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, toUpper(r))
			start = false
			if len(out) == 2 {
				break
			}
		}
	}
	return string(out)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Credentials is the body of POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the unwrapped login response: the profile plus the bearer token.
type LoginResult struct {
	User    User
	Token   string
	Message string
}
