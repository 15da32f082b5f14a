package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/usecase"
	financeentity "budget_backend/internal/feature/finance/domain/entity"
	dbx "budget_backend/internal/platform/db"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrAlreadyRegisteredを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if err := dbx.Conn(ctx, r.db).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrAlreadyRegistered
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := dbx.Conn(ctx, r.db).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := dbx.Conn(ctx, r.db).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Update はユーザーの全列を保存します。
// メールアドレスが他のユーザーと重複する場合、usecase.ErrAlreadyRegisteredを返します。
func (r *userGorm) Update(ctx context.Context, u *entity.User) error {
	res := dbx.Conn(ctx, r.db).Model(u).Select("*").Omit("created_at").Updates(u)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return usecase.ErrAlreadyRegistered
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// DeleteCascade はユーザーと所有データを単一トランザクションで削除します。
// いずれかの削除に失敗した場合はすべてロールバックされます。
func (r *userGorm) DeleteCascade(ctx context.Context, id uint) error {
	return dbx.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var u entity.User
		if err := tx.Select("id", "email").Where("id = ?", id).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecase.ErrUserNotFound
			}
			return err
		}

		for _, model := range financeentity.OwnedModels() {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete %T: %w", model, err)
			}
		}

		if err := tx.Where("email = ? OR user_id = ?", u.Email, id).Delete(&entity.OneTimeCode{}).Error; err != nil {
			return fmt.Errorf("failed to delete otps: %w", err)
		}
		return tx.Delete(&entity.User{}, id).Error
	})
}
