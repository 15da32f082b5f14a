package usecase

import (
	"context"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/platform/ratelimit"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrAlreadyRegisteredを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// Update はユーザーの変更可能な列を保存します。
	Update(ctx context.Context, user *entity.User) error

	// DeleteCascade はユーザーと所有するすべての金融データを単一トランザクションで削除します。
	DeleteCascade(ctx context.Context, id uint) error
}

// OTPRepository はワンタイムコードの永続化層を抽象化します。
type OTPRepository interface {
	// Create persists a freshly issued code.
	Create(ctx context.Context, otp *entity.OneTimeCode) error

	// DeleteAll removes every code for (email, purpose) regardless of state.
	DeleteAll(ctx context.Context, email string, purpose entity.Purpose) error

	// FindLatest returns the most recently issued code for (email, purpose),
	// verified or not, or ErrOTPNotFound. Only this row can ever be accepted,
	// which makes racing issuances last-writer-wins.
	FindLatest(ctx context.Context, email string, purpose entity.Purpose) (*entity.OneTimeCode, error)

	// MarkVerified flips an unverified row to verified. It returns ErrOTPNotFound
	// if the row was already verified or deleted concurrently.
	MarkVerified(ctx context.Context, id uint, at time.Time) error

	// DeleteStale removes verified or expired rows for (email, purpose) except keepID.
	DeleteStale(ctx context.Context, email string, purpose entity.Purpose, now time.Time, keepID uint) error

	// Consume deletes the row. It returns ErrOTPNotFound if another request
	// consumed it first.
	Consume(ctx context.Context, id uint) error

	// DeleteExpired removes rows that expired before the given time. Verified
	// rows are kept while they are still within verifiedWindow of VerifiedAt,
	// since registration may consume them after the code itself expired.
	DeleteExpired(ctx context.Context, before time.Time, verifiedWindow time.Duration) (int64, error)
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CategorySeeder creates the default category set for a new account.
type CategorySeeder interface {
	SeedDefaults(ctx context.Context, userID uint) error
}

// TokenManager はセッショントークンの発行と検証を定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type TokenManager interface {
	// GenerateToken は指定されたユーザーの署名済みトークンを生成します。
	GenerateToken(userID uint, email string, role entity.Role) (string, error)
	// ParseToken は署名と有効期限を検証し、埋め込まれたクレームを返します。
	ParseToken(token string) (*entity.Claims, error)
}

// RevocationStore keeps the ids of logged out tokens until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, token *entity.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RateLimiter is the subset of ratelimit.Limiter consulted by the usecases.
type RateLimiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (ratelimit.Result, error)
	Reset(ctx context.Context, key string) error
}

// OTPMailer delivers one-time codes. Implementations may fail; callers log and
// swallow the error.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string, purpose entity.Purpose, ttl time.Duration) error
}
