package model

import (
	"strings"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Username      string     `json:"username" gorm:"uniqueIndex;size:30;not null"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsSystemAdmin bool       `json:"is_system_admin" gorm:"default:false"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PublicUser is the read model returned to API clients. It has no password
// field at all, so a serialization bug can never leak the hash.
type PublicUser struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	IsSystemAdmin bool       `json:"is_system_admin"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Public converts a User into its client-facing read model.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		IsSystemAdmin: u.IsSystemAdmin,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address. Emails are unique
// case-insensitively, so every lookup and write goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
