package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"budget_backend/internal/feature/finance/domain/entity"
)

type lruKey struct {
	userID uint
	typ    entity.CategoryType
}

// LRUCategoryRepository decorates a CategoryStore with an in-process
// expirable LRU. Used when Redis is not configured.
type LRUCategoryRepository struct {
	inner CategoryStore
	cache *expirable.LRU[lruKey, []entity.Category]
}

var _ CategoryStore = (*LRUCategoryRepository)(nil)

// NewLRUCategoryRepository returns inner wrapped in an LRU of at most size lists.
// If size is 0 it defaults to 1024, if ttl is 0 to 5 minutes.
func NewLRUCategoryRepository(size int, ttl time.Duration, inner CategoryStore) *LRUCategoryRepository {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LRUCategoryRepository{
		inner: inner,
		cache: expirable.NewLRU[lruKey, []entity.Category](size, nil, ttl),
	}
}

// SeedDefaults seeds the inner store and drops the user's cached lists.
func (c *LRUCategoryRepository) SeedDefaults(ctx context.Context, userID uint) error {
	if err := c.inner.SeedDefaults(ctx, userID); err != nil {
		return err
	}
	c.Invalidate(userID)
	return nil
}

func (c *LRUCategoryRepository) ListByUser(ctx context.Context, userID uint, typ entity.CategoryType) ([]entity.Category, error) {
	key := lruKey{userID: userID, typ: typ}
	if cached, ok := c.cache.Get(key); ok {
		return cloneCategories(cached), nil
	}
	out, err := c.inner.ListByUser(ctx, userID, typ)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneCategories(out))
	return out, nil
}

// Invalidate drops every cached list of userID.
func (c *LRUCategoryRepository) Invalidate(userID uint) {
	for _, typ := range []entity.CategoryType{"", entity.CategoryIncome, entity.CategoryExpense} {
		c.cache.Remove(lruKey{userID: userID, typ: typ})
	}
}

func cloneCategories(in []entity.Category) []entity.Category {
	if in == nil {
		return nil
	}
	out := make([]entity.Category, len(in))
	copy(out, in)
	return out
}
