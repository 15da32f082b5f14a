package usecase

import (
	"time"

	"budget_backend/internal/platform/ratelimit"

	"golang.org/x/crypto/bcrypt"
)

// Config holds the tunables of the auth usecases.
type Config struct {
	// OTPTTL is how long an issued code can be verified.
	OTPTTL time.Duration
	// VerifiedWindow is how long a verified email-verification code can be
	// consumed by registration, counted from verification.
	VerifiedWindow time.Duration
	// BcryptCost is the adaptive hash cost for passwords.
	BcryptCost int
	// DevMode echoes issued codes back to the caller. Never enable in production.
	DevMode bool
	// MailTimeout bounds a single background email delivery.
	MailTimeout time.Duration

	SendLimit   ratelimit.Rule
	VerifyLimit ratelimit.Rule
	LoginLimit  ratelimit.Rule
	ResetLimit  ratelimit.Rule
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		OTPTTL:         10 * time.Minute,
		VerifiedWindow: 30 * time.Minute,
		BcryptCost:     12,
		MailTimeout:    30 * time.Second,
		SendLimit:      ratelimit.Rule{Max: 5, Window: 15 * time.Minute},
		VerifyLimit:    ratelimit.Rule{Max: 10, Window: 15 * time.Minute},
		LoginLimit:     ratelimit.Rule{Max: 5, Window: 15 * time.Minute},
		ResetLimit:     ratelimit.Rule{Max: 5, Window: 15 * time.Minute},
	}
}

func (c Config) bcryptCost() int {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return c.BcryptCost
}
