package entity

import (
	"fmt"
	"time"
)

// Purpose scopes a one-time code to a single use case.
type Purpose string

const (
	PurposeEmailVerification Purpose = "EMAIL_VERIFICATION"
	PurposePasswordReset     Purpose = "PASSWORD_RESET"
)

// ParsePurpose converts the wire value into a Purpose.
// An empty string defaults to PurposeEmailVerification.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case "", PurposeEmailVerification:
		return PurposeEmailVerification, nil
	case PurposePasswordReset:
		return PurposePasswordReset, nil
	default:
		return "", fmt.Errorf("unknown otp purpose %q", s)
	}
}

// OneTimeCode is a short-lived numeric code proving control of an email address.
// At most one unverified, unexpired code exists per (Email, Purpose).
type OneTimeCode struct {
	ID         uint      `gorm:"primaryKey"`
	Email      string    `gorm:"size:255;not null;index:idx_otp_email_purpose"`
	Code       string    `gorm:"size:6;not null"`
	Purpose    Purpose   `gorm:"size:32;not null;index:idx_otp_email_purpose"`
	ExpiresAt  time.Time `gorm:"index;not null"`
	Verified   bool      `gorm:"not null;default:false"`
	VerifiedAt *time.Time
	UserID     *uint `gorm:"index"`
	CreatedAt  time.Time
}

// TableName returns the table name for GORM.
func (OneTimeCode) TableName() string {
	return "email_otps"
}

// IsExpired reports whether the code can no longer be verified at now.
func (o *OneTimeCode) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// VerifiedWithin reports whether the code was verified no longer than window before now.
func (o *OneTimeCode) VerifiedWithin(now time.Time, window time.Duration) bool {
	if !o.Verified || o.VerifiedAt == nil {
		return false
	}
	return now.Sub(*o.VerifiedAt) <= window
}
