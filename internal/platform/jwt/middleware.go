package jwtmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"budget_backend/internal/feature/auth/domain/entity"
)

const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// TokenVerifier validates a bearer token. Any failure is reported as false.
type TokenVerifier interface {
	VerifySessionToken(ctx context.Context, token string) (*entity.Claims, bool)
}

// AuthRequired returns a Gin middleware function that validates session tokens
// and restricts access to authenticated users only.
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Verify signature, expiry and revocation
		claims, ok := verifier.VerifySessionToken(c.Request.Context(), tokenStr)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// 3. Expose identity to handlers
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by AuthRequired.
func ClaimsFromContext(c *gin.Context) (*entity.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*entity.Claims)
	return claims, ok && claims != nil
}
