// Package session keeps the server-side state of stateless session tokens in
// Redis: the list of token ids that were logged out before they expired.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/usecase"

	"github.com/redis/go-redis/v9"
)

// RevocationRedis implements usecase.RevocationStore using Redis keys whose
// TTL matches the remaining lifetime of the revoked token.
type RevocationRedis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ usecase.RevocationStore = (*RevocationRedis)(nil)

// NewRevocationRedis creates a new RevocationRedis instance.
func NewRevocationRedis(client redis.UniversalClient, prefix string) *RevocationRedis {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RevocationRedis{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// key returns the Redis key for a token id.
func (r *RevocationRedis) key(tokenID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, tokenID)
}

// Revoke stores the token id until the token expires. Tokens that already
// expired are not stored.
func (r *RevocationRedis) Revoke(ctx context.Context, t *entity.RevokedToken) error {
	ttl := t.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, r.key(t.TokenID), strconv.FormatUint(uint64(t.UserID), 10), ttl).Err()
}

// IsRevoked reports whether the token id is on the list.
func (r *RevocationRedis) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
