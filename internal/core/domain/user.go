package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasRole reports whether the user holds the given role. Comparison is
// case-insensitive.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// RequireRole fails with ErrForbidden when the user's role set does not
// contain the named role.
func RequireRole(u *User, role string) error {
	if u == nil || !u.HasRole(role) {
		return ErrForbidden
	}
	return nil
}
