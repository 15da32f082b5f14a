// Package adapters はfinanceフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"

	"budget_backend/internal/feature/finance/domain/entity"
	"budget_backend/internal/feature/finance/usecase"
	dbx "budget_backend/internal/platform/db"
)

// categoryGorm はCategoryRepositoryインターフェースのGORM実装です。
type categoryGorm struct {
	db *gorm.DB
}

var _ usecase.CategoryRepository = (*categoryGorm)(nil)

// NewCategoryGorm は指定されたDB接続でcategoryGormの新しいインスタンスを生成します。
func NewCategoryGorm(db *gorm.DB) *categoryGorm {
	return &categoryGorm{db: db}
}

// ListByUser はユーザーのカテゴリをtype、name順に返します。
func (r *categoryGorm) ListByUser(ctx context.Context, userID uint, typ entity.CategoryType) ([]entity.Category, error) {
	q := dbx.Conn(ctx, r.db).Where("user_id = ?", userID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var categories []entity.Category
	if err := q.Order("type ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// SeedDefaults は新規アカウント用のデフォルトカテゴリを一括登録します。
// 呼び出し側のトランザクションがctxにある場合はそれに参加します。
func (r *categoryGorm) SeedDefaults(ctx context.Context, userID uint) error {
	defaults := entity.DefaultCategories(userID)
	return dbx.Conn(ctx, r.db).Create(&defaults).Error
}
