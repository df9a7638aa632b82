package domain

import "strings"

// Identity is the signed-in user's authentication record.
type Identity struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

type Role string

const (
	RoleNone   Role = ""
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a server-provided role string onto a known Role.
// Unknown values resolve to RoleNone.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser
	case RoleVendor:
		return RoleVendor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// UserProfile is the backend's view of a user, fetched by email.
type UserProfile struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Image   string `json:"image"`
	Role    Role   `json:"role"`
	IsFraud bool   `json:"isFraud"`
}
