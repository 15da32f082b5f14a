package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/usecase"
	dbx "budget_backend/internal/platform/db"
)

// otpGorm はOTPRepositoryインターフェースのGORM実装です。
type otpGorm struct {
	db *gorm.DB
}

var _ usecase.OTPRepository = (*otpGorm)(nil)

// NewOTPGorm はotpGormの新しいインスタンスを生成します。
func NewOTPGorm(db *gorm.DB) *otpGorm {
	return &otpGorm{db: db}
}

// Create は発行されたコードを保存します。
func (r *otpGorm) Create(ctx context.Context, otp *entity.OneTimeCode) error {
	return dbx.Conn(ctx, r.db).Create(otp).Error
}

// DeleteAll は(email, purpose)のコードを状態に関係なくすべて削除します。
func (r *otpGorm) DeleteAll(ctx context.Context, email string, purpose entity.Purpose) error {
	return dbx.Conn(ctx, r.db).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&entity.OneTimeCode{}).Error
}

// FindLatest は(email, purpose)で最後に発行されたコードを返します。
// 存在しない場合、usecase.ErrOTPNotFoundを返します。
func (r *otpGorm) FindLatest(ctx context.Context, email string, purpose entity.Purpose) (*entity.OneTimeCode, error) {
	var otp entity.OneTimeCode
	err := dbx.Conn(ctx, r.db).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrOTPNotFound
		}
		return nil, err
	}
	return &otp, nil
}

// MarkVerified は未検証のコードを検証済みにします。
// 更新対象がない場合（検証済みまたは削除済み）、usecase.ErrOTPNotFoundを返します。
func (r *otpGorm) MarkVerified(ctx context.Context, id uint, at time.Time) error {
	res := dbx.Conn(ctx, r.db).
		Model(&entity.OneTimeCode{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]any{"verified": true, "verified_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrOTPNotFound
	}
	return nil
}

// DeleteStale は検証済みまたは期限切れのコードをkeepID以外すべて削除します。
func (r *otpGorm) DeleteStale(ctx context.Context, email string, purpose entity.Purpose, now time.Time, keepID uint) error {
	return dbx.Conn(ctx, r.db).
		Where("email = ? AND purpose = ? AND id <> ?", email, purpose, keepID).
		Where("verified = ? OR expires_at <= ?", true, now).
		Delete(&entity.OneTimeCode{}).Error
}

// Consume はコードを削除します。並行リクエストが先に削除した場合、usecase.ErrOTPNotFoundを返します。
func (r *otpGorm) Consume(ctx context.Context, id uint) error {
	res := dbx.Conn(ctx, r.db).Delete(&entity.OneTimeCode{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrOTPNotFound
	}
	return nil
}

// DeleteExpired はbefore以前に期限切れとなったコードを削除し、削除件数を返します。
// 確認済みのコードは確認からverifiedWindowが経過するまで残します。
func (r *otpGorm) DeleteExpired(ctx context.Context, before time.Time, verifiedWindow time.Duration) (int64, error) {
	res := dbx.Conn(ctx, r.db).
		Where("expires_at < ?", before).
		Where("verified = ? OR verified_at IS NULL OR verified_at < ?", false, before.Add(-verifiedWindow)).
		Delete(&entity.OneTimeCode{})
	return res.RowsAffected, res.Error
}
