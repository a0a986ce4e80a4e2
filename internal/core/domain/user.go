package domain

import (
	"strings"
	"time"
)

// User models an authenticated actor in the system. Email is the login
// identity and is unique after normalization.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfilePatch carries the fields a user may change on their own record.
// Nil means "leave unchanged".
type ProfilePatch struct {
	FullName  *string
	Phone     *string
	AvatarURL *string
}

// NormalizeEmail is the canonical form used for uniqueness and lookup.
// "A@X.com" and "a@x.com" are the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
