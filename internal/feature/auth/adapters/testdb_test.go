package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"budget_backend/internal/feature/auth/domain/entity"
	financeentity "budget_backend/internal/feature/finance/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: is per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	models := []any{&entity.User{}, &entity.OneTimeCode{}, &RevokedTokenModel{}}
	models = append(models, financeentity.OwnedModels()...)
	require.NoError(t, db.AutoMigrate(models...), "failed to migrate tables")

	return db
}
