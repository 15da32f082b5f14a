package entity

import "time"

// Claims is the identity embedded in a signed session token.
// Tokens are stateless; the only server-side state is the revocation list.
type Claims struct {
	TokenID   string    // jti, used as the revocation key
	UserID    uint      // sub
	Email     string    // Email at issue time
	Role      Role      // Role at issue time
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
}

// IsExpired returns true if the token has passed its expiration time.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// RevokedToken records a session token that was explicitly logged out.
// It only needs to be kept until the token would have expired anyway.
type RevokedToken struct {
	TokenID   string
	UserID    uint
	ExpiresAt time.Time
	RevokedAt time.Time
}
