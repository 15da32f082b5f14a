package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string
	User  *entity.User
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users      UserRepository
	otps       OTPRepository
	categories CategorySeeder
	tx         Transactor
	tokens     TokenManager
	revoked    RevocationStore
	limiter    RateLimiter
	cfg        Config
	now        func() time.Time

	// dummyHash はユーザーが存在しない場合の比較対象です。
	dummyHash []byte
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
// revokedとlimiterはnilでも構いません。
func NewAuthUsecase(
	users UserRepository,
	otps OTPRepository,
	categories CategorySeeder,
	tx Transactor,
	tokens TokenManager,
	revoked RevocationStore,
	limiter RateLimiter,
	cfg Config,
) *authUsecase {
	// 実ハッシュと同じコストで生成し、ログイン失敗時の応答時間を揃える
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cfg.bcryptCost())
	if err != nil {
		dummy = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")
	}
	return &authUsecase{
		users:      users,
		otps:       otps,
		categories: categories,
		tx:         tx,
		tokens:     tokens,
		revoked:    revoked,
		limiter:    limiter,
		cfg:        cfg,
		now:        time.Now,
		dummyHash:  dummy,
	}
}

// Register はメール確認済みのアドレスで新規ユーザーを作成し、セッショントークンを発行します。
// ユーザー作成・デフォルトカテゴリの登録・確認コードの削除は単一トランザクションで実行されます。
func (u *authUsecase) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	otp, err := u.otps.FindLatest(ctx, email, entity.PurposeEmailVerification)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return nil, ErrEmailNotVerified
		}
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	if !otp.VerifiedWithin(u.now(), u.cfg.VerifiedWindow) {
		return nil, ErrEmailNotVerified
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.cfg.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:         email,
		Name:          name,
		Password:      string(hashed),
		Role:          entity.RoleUser,
		EmailVerified: true,
	}
	err = u.withinTx(ctx, func(ctx context.Context) error {
		if _, err := u.users.FindByEmail(ctx, email); err == nil {
			return ErrAlreadyRegistered
		} else if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if err := u.users.Create(ctx, user); err != nil {
			return err
		}
		if u.categories != nil {
			if err := u.categories.SeedDefaults(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to seed categories: %w", err)
			}
		}
		return u.otps.DeleteAll(ctx, email, entity.PurposeEmailVerification)
	})
	if err != nil {
		return nil, err
	}

	token, err := u.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	slog.Info("user registered", "user_id", user.ID, "email", email)
	return &AuthResult{Token: token, User: user}, nil
}

// Login はユーザーを認証し、成功時にセッショントークンを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if err := allow(ctx, u.limiter, loginLimitKey(email), u.cfg.LoginLimit); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash := u.dummyHash
	if err == nil {
		passwordHash = []byte(user.Password)
	}
	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	compareErr := bcrypt.CompareHashAndPassword(passwordHash, []byte(password))

	// ユーザー未検出またはパスワード不一致の場合、汎用エラーを返す
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := u.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if u.limiter != nil {
		if err := u.limiter.Reset(ctx, loginLimitKey(email)); err != nil {
			slog.Warn("failed to reset login limiter", "error", err, "email", email)
		}
	}
	return &AuthResult{Token: token, User: user}, nil
}

// VerifySessionToken はトークンの署名・有効期限・失効状態を検証します。
// 失敗理由は区別せず、falseのみを返します。
func (u *authUsecase) VerifySessionToken(ctx context.Context, token string) (*entity.Claims, bool) {
	claims, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, false
	}
	if u.revoked != nil {
		revoked, err := u.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err, "user_id", claims.UserID)
			return nil, false
		}
		if revoked {
			return nil, false
		}
	}
	return claims, true
}

// Logout はトークンを有効期限まで失効リストに登録します。
func (u *authUsecase) Logout(ctx context.Context, claims *entity.Claims) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if u.revoked == nil {
		return nil
	}
	err := u.revoked.Revoke(ctx, &entity.RevokedToken{
		TokenID:   claims.TokenID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		RevokedAt: u.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ChangePassword は現在のパスワードを検証した上でパスワードを更新します。
func (u *authUsecase) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return fmt.Errorf("%w: current password is required", ErrValidation)
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := u.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cfg.bcryptCost())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	if err := u.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// DeleteAccount はユーザーと所有データをすべて削除します。
func (u *authUsecase) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := u.loadUser(ctx, userID); err != nil {
		return err
	}
	if err := u.users.DeleteCascade(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	slog.Info("account deleted", "user_id", userID)
	return nil
}

// Profile は認証済みユーザーの情報を返します。
func (u *authUsecase) Profile(ctx context.Context, userID uint) (*entity.User, error) {
	return u.loadUser(ctx, userID)
}

// UpdateProfile は名前とメールアドレスを更新します。空の値は変更しません。
func (u *authUsecase) UpdateProfile(ctx context.Context, userID uint, name, email string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	user, err := u.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if email != "" && email != user.Email {
		other, err := u.users.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != user.ID:
			return nil, ErrAlreadyRegistered
		case err != nil && !errors.Is(err, ErrUserNotFound):
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}

	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// loadUser maps a missing user behind a valid token to ErrUnauthorized.
func (u *authUsecase) loadUser(ctx context.Context, userID uint) (*entity.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (u *authUsecase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.tx == nil {
		return fn(ctx)
	}
	return u.tx.WithinTx(ctx, fn)
}
