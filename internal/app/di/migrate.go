package di

import (
	"gorm.io/gorm"

	authadapters "budget_backend/internal/feature/auth/adapters"
	authentity "budget_backend/internal/feature/auth/domain/entity"
	financeentity "budget_backend/internal/feature/finance/domain/entity"
)

// Models lists every table owned by the application.
func Models() []any {
	models := []any{
		&authentity.User{},
		&authentity.OneTimeCode{},
		&authadapters.RevokedTokenModel{},
	}
	return append(models, financeentity.OwnedModels()...)
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
