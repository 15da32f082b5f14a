// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// Role is the authorization role carried by a user and its session tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a registered user in the system.
// It contains authentication credentials and metadata for user management.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Email is the user's email address used for authentication.
	// It is stored lowercased and must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Name is the display name entered at registration.
	Name string `gorm:"size:255;not null"`

	// Password is the hashed password for the user.
	// This should never store plaintext passwords.
	Password string `gorm:"size:255;not null"`

	Role Role `gorm:"size:20;not null;default:USER"`

	// EmailVerified is true once ownership of Email was proven with a one-time code.
	EmailVerified bool `gorm:"not null;default:false"`

	// ResetToken and ResetTokenExpiry belong to the link-based reset flow that
	// predates one-time codes. They are only ever cleared.
	ResetToken       *string `gorm:"size:255"`
	ResetTokenExpiry *time.Time

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time
}
