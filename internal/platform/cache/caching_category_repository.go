// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"budget_backend/internal/feature/finance/domain/entity"
	"budget_backend/internal/feature/finance/usecase"
)

// CategoryStore is a category repository that can also seed defaults.
type CategoryStore interface {
	usecase.CategoryRepository
	SeedDefaults(ctx context.Context, userID uint) error
}

// CachingCategoryRepository decorates a CategoryStore with Redis caching.
// Reads are served from Redis when possible; seeding invalidates the user's entries.
type CachingCategoryRepository struct {
	inner     CategoryStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ CategoryStore = (*CachingCategoryRepository)(nil)

// NewCachingCategoryRepository decorates a CategoryStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "categories".
func NewCachingCategoryRepository(rdb *redis.Client, ttl time.Duration, inner CategoryStore, namespace string) *CachingCategoryRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "categories"
	}
	return &CachingCategoryRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// SeedDefaults seeds the inner store and invalidates the user's cache entries.
func (c *CachingCategoryRepository) SeedDefaults(ctx context.Context, userID uint) error {
	if err := c.inner.SeedDefaults(ctx, userID); err != nil {
		return err
	}
	c.Invalidate(ctx, userID)
	return nil
}

// ListByUser retrieves categories, checking cache first then falling back to the database.
func (c *CachingCategoryRepository) ListByUser(ctx context.Context, userID uint, typ entity.CategoryType) ([]entity.Category, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.ListByUser(ctx, userID, typ)
	}

	key := c.cacheKey(userID, typ)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Category
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.ListByUser(ctx, userID, typ)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// Invalidate drops every cached list of userID. Errors are logged only.
func (c *CachingCategoryRepository) Invalidate(ctx context.Context, userID uint) {
	if c.rdb == nil {
		return
	}
	if err := c.deleteByPattern(ctx, c.cacheKeyPrefix(userID)+"*"); err != nil {
		slog.Warn("failed to invalidate category cache", "error", err, "user_id", userID)
	}
}

// cacheKey generates a cache key for a specific query.
func (c *CachingCategoryRepository) cacheKey(userID uint, typ entity.CategoryType) string {
	t := string(typ)
	if t == "" {
		t = "ALL"
	}
	return c.cacheKeyPrefix(userID) + t
}

// cacheKeyPrefix generates a prefix for invalidating a user's cache entries.
func (c *CachingCategoryRepository) cacheKeyPrefix(userID uint) string {
	return fmt.Sprintf("%s:%d:", c.namespace, userID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingCategoryRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
