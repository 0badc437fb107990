package domain

import "fmt"

// Role is the account category. The same email may hold one account per role,
// so (email, role), not email alone, identifies an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// ParseRole maps a URL path segment to a Role. Unknown values wrap ErrNotFound
// so the transport layer can answer 404 for route branches that don't exist.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleFaculty:
		return RoleFaculty, nil
	}
	return "", fmt.Errorf("unknown role %q: %w", s, ErrNotFound)
}

func (r Role) String() string { return string(r) }
