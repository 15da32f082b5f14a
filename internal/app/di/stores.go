package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "budget_backend/internal/feature/auth/adapters"
	"budget_backend/internal/feature/auth/usecase"
	"budget_backend/internal/platform/cache"
	"budget_backend/internal/platform/ratelimit"
	"budget_backend/internal/platform/session"
)

// NewRevocationStore creates a RevocationStore implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it falls back to the database.
func NewRevocationStore(rdb *redis.Client, db *gorm.DB) usecase.RevocationStore {
	if rdb != nil {
		return session.NewRevocationRedis(rdb, "revoked")
	}
	return authadapters.NewRevocationGorm(db)
}

// NewLimiter creates a shared Redis limiter, or a process-local one without Redis.
func NewLimiter(rdb *redis.Client) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.NewRedis(rdb, "ratelimit")
	}
	return ratelimit.NewMemory()
}

// NewCategoryStore wraps inner in a Redis cache, or an in-process LRU without Redis.
func NewCategoryStore(rdb *redis.Client, ttl time.Duration, inner cache.CategoryStore) cache.CategoryStore {
	if rdb != nil {
		return cache.NewCachingCategoryRepository(rdb, ttl, inner, "categories")
	}
	return cache.NewLRUCategoryRepository(0, ttl, inner)
}
