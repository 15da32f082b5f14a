package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/usecase"
)

// revocationGorm is a database implementation of RevocationStore, used when
// Redis is not configured.
type revocationGorm struct {
	db  *gorm.DB
	now func() time.Time
}

// Compile-time check to ensure revocationGorm implements RevocationStore.
var _ usecase.RevocationStore = (*revocationGorm)(nil)

// NewRevocationGorm creates a new instance of revocationGorm.
func NewRevocationGorm(db *gorm.DB) *revocationGorm {
	return &revocationGorm{db: db, now: time.Now}
}

// Revoke records the token id. Revoking twice is a no-op.
func (r *revocationGorm) Revoke(ctx context.Context, t *entity.RevokedToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(RevokedTokenModelFromEntity(t)).Error
}

// IsRevoked reports whether the token id is on the list and not yet expired.
func (r *revocationGorm) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RevokedTokenModel{}).
		Where("token_id = ? AND expires_at > ?", tokenID, r.now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpired removes entries whose tokens have expired anyway.
// Returns the number of deleted entries.
func (r *revocationGorm) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now()).
		Delete(&RevokedTokenModel{})
	return res.RowsAffected, res.Error
}
