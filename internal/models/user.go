// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known role keys seeded as system roles.
const (
	RoleKeyAdmin  = "admin"
	RoleKeyEditor = "editor"
	RoleKeyAuthor = "author"
)

// User represents an editorial console user. RoleID is the authoritative
// role reference; RoleKey is joined in for display and session labels.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	RoleID       uuid.UUID `json:"role_id"`
	RoleKey      string    `json:"role"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// All users must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}

// Permission is a single grantable action, identified by a dot-namespaced
// key such as "articles.delete".
type Permission struct {
	ID       uuid.UUID `json:"id"`
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
}

// Role is a named set of permissions. System roles cannot be deleted,
// though their permission sets may still be edited.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	IsSystem    bool      `json:"is_system"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
