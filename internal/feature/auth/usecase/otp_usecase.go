package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/platform/ratelimit"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MessageCodeSent is returned after issuing an email verification code.
	MessageCodeSent = "OTP sent successfully"
	// MessageResetRequested is returned for every password reset request,
	// whether or not an account exists for the email.
	MessageResetRequested = "If an account with that email exists, a verification code has been sent."
	// MessagePasswordReset is returned after a successful reset.
	MessagePasswordReset = "Password reset successfully"
)

// SendResult is the client-visible outcome of SendCode.
type SendResult struct {
	Message string
	// DebugCode is only set in development mode and only when a code was issued.
	DebugCode string
}

// otpUsecase はワンタイムコードのライフサイクル（発行・検証・消費）を実装します。
type otpUsecase struct {
	users    UserRepository
	otps     OTPRepository
	tx       Transactor
	mailer   OTPMailer
	limiter  RateLimiter
	cfg      Config
	now      func() time.Time
	dispatch func(func())
}

// NewOTPUsecase はotpUsecaseの新しいインスタンスを生成します。
// limiterがnilの場合、レート制限は行いません。
func NewOTPUsecase(users UserRepository, otps OTPRepository, tx Transactor, mailer OTPMailer, limiter RateLimiter, cfg Config) *otpUsecase {
	return &otpUsecase{
		users:    users,
		otps:     otps,
		tx:       tx,
		mailer:   mailer,
		limiter:  limiter,
		cfg:      cfg,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

// SendCode issues a new code for (email, purpose), replacing any previous one.
//
// For PurposeEmailVerification an existing account is an error. For
// PurposePasswordReset an unknown email is answered with the same result as a
// known one, without issuing anything.
func (u *otpUsecase) SendCode(ctx context.Context, email string, purpose entity.Purpose) (*SendResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := allow(ctx, u.limiter, "otp:send:"+email, u.cfg.SendLimit); err != nil {
		return nil, err
	}

	var (
		owner   *uint
		message string
	)
	switch purpose {
	case entity.PurposeEmailVerification:
		message = MessageCodeSent
		_, err := u.users.FindByEmail(ctx, email)
		if err == nil {
			return nil, ErrAlreadyRegistered
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
	case entity.PurposePasswordReset:
		message = MessageResetRequested
		user, err := u.users.FindByEmail(ctx, email)
		if errors.Is(err, ErrUserNotFound) {
			// 既存ユーザーと同じストア操作を行い、応答時間を揃える（コードは生成しない）
			if err := u.otps.DeleteAll(ctx, email, purpose); err != nil {
				return nil, fmt.Errorf("failed to delete previous codes: %w", err)
			}
			slog.Info("password reset requested for unknown email", "email", email)
			return &SendResult{Message: message}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		owner = &user.ID
	default:
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrValidation, purpose)
	}

	code, err := u.issue(ctx, email, purpose, owner)
	if err != nil {
		return nil, err
	}

	res := &SendResult{Message: message}
	if u.cfg.DevMode {
		res.DebugCode = code
	}
	return res, nil
}

// issue replaces the code for (email, purpose) and dispatches it by email.
func (u *otpUsecase) issue(ctx context.Context, email string, purpose entity.Purpose, owner *uint) (string, error) {
	if err := u.otps.DeleteAll(ctx, email, purpose); err != nil {
		return "", fmt.Errorf("failed to delete previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	otp := &entity.OneTimeCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: u.now().Add(u.cfg.OTPTTL),
		UserID:    owner,
	}
	if err := u.otps.Create(ctx, otp); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	u.deliver(ctx, email, code, purpose)
	return code, nil
}

// deliver sends the code in the background. Failures are logged only; the
// code stays valid and the caller's response does not change.
func (u *otpUsecase) deliver(ctx context.Context, email, code string, purpose entity.Purpose) {
	if u.mailer == nil {
		slog.Warn("no mailer configured, otp not delivered", "email", email, "purpose", purpose)
		return
	}
	base := context.WithoutCancel(ctx)
	u.dispatch(func() {
		ctx, cancel := context.WithTimeout(base, u.cfg.MailTimeout)
		defer cancel()
		if err := u.mailer.SendOTP(ctx, email, code, purpose, u.cfg.OTPTTL); err != nil {
			slog.Warn("failed to send otp email", "error", err, "email", email, "purpose", purpose)
			return
		}
		slog.Info("otp email sent", "email", email, "purpose", purpose)
	})
}

// VerifyCode marks the latest code for (email, purpose) as verified.
// Wrong, expired and already verified codes all yield ErrInvalidOrExpiredCode.
func (u *otpUsecase) VerifyCode(ctx context.Context, email, code string, purpose entity.Purpose) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	if err := allow(ctx, u.limiter, "otp:verify:"+email, u.cfg.VerifyLimit); err != nil {
		return err
	}

	now := u.now()
	otp, err := u.otps.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to load code: %w", err)
	}
	if otp.Verified || otp.IsExpired(now) || !codeMatches(otp.Code, code) {
		return ErrInvalidOrExpiredCode
	}

	if err := u.otps.MarkVerified(ctx, otp.ID, now); err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to mark code verified: %w", err)
	}

	// The verified row itself survives until it is consumed.
	if err := u.otps.DeleteStale(ctx, email, purpose, now, otp.ID); err != nil {
		slog.Warn("failed to clean up stale codes", "error", err, "email", email, "purpose", purpose)
	}
	return nil
}

// ResetPassword re-validates the reset code at the moment of reset and, if it
// is still valid, replaces the password and consumes every reset code.
func (u *otpUsecase) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validateCode(code); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if err := allow(ctx, u.limiter, "otp:reset:"+email, u.cfg.ResetLimit); err != nil {
		return err
	}

	otp, err := u.otps.FindLatest(ctx, email, entity.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("failed to load code: %w", err)
	}
	if otp.IsExpired(u.now()) || !codeMatches(otp.Code, code) {
		return ErrInvalidOrExpiredCode
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cfg.bcryptCost())
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.ResetToken = nil
	user.ResetTokenExpiry = nil

	// コードの消費・パスワード更新・残りのコード削除は単一トランザクションで実行する
	err = u.withinTx(ctx, func(ctx context.Context) error {
		// Consuming first makes the code single-shot under concurrent resets.
		if err := u.otps.Consume(ctx, otp.ID); err != nil {
			if errors.Is(err, ErrOTPNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("failed to consume code: %w", err)
		}
		if err := u.users.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := u.otps.DeleteAll(ctx, email, entity.PurposePasswordReset); err != nil {
			return fmt.Errorf("failed to delete reset codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if u.limiter != nil {
		if err := u.limiter.Reset(ctx, loginLimitKey(email)); err != nil {
			slog.Warn("failed to reset login limiter", "error", err, "email", email)
		}
	}
	return nil
}

// allow consults the limiter. A nil limiter or a zero rule disables the check,
// and limiter failures are logged and treated as allowed.
func allow(ctx context.Context, l RateLimiter, key string, rule ratelimit.Rule) error {
	if l == nil || rule.Max <= 0 {
		return nil
	}
	res, err := l.Check(ctx, key, rule.Max, rule.Window)
	if err != nil {
		slog.Warn("rate limiter unavailable", "error", err, "key", key)
		return nil
	}
	if !res.Allowed {
		return &RateLimitError{RetryAfter: res.RetryAfter(time.Now())}
	}
	return nil
}

func (u *otpUsecase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u.tx == nil {
		return fn(ctx)
	}
	return u.tx.WithinTx(ctx, fn)
}

func loginLimitKey(email string) string {
	return "login:" + email
}
