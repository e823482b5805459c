package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User models an account that can sign in to the roster.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidRole reports whether role is one the system knows about.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleOperator
}
