// Package usecase implements the business logic for the finance feature.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"budget_backend/internal/feature/finance/domain/entity"
)

// ErrInvalidCategoryType is returned for an unknown type filter.
var ErrInvalidCategoryType = errors.New("type must be INCOME or EXPENSE")

// CategoryRepository abstracts the persistence layer for categories.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type CategoryRepository interface {
	// ListByUser returns the user's categories ordered by type then name.
	// An empty typ returns every category.
	ListByUser(ctx context.Context, userID uint, typ entity.CategoryType) ([]entity.Category, error)
}

// CategoryUsecase provides read access to a user's categories.
type CategoryUsecase struct {
	repo CategoryRepository
}

// NewCategoryUsecase creates a new CategoryUsecase with the given repository.
func NewCategoryUsecase(r CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{repo: r}
}

// List returns the categories owned by userID, optionally filtered by rawType.
func (u *CategoryUsecase) List(ctx context.Context, userID uint, rawType string) ([]entity.Category, error) {
	typ, err := entity.ParseCategoryType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCategoryType, err)
	}
	return u.repo.ListByUser(ctx, userID, typ)
}
