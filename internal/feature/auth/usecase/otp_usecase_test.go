package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/platform/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type otpFixture struct {
	users  *fakeUserRepository
	otps   *fakeOTPRepository
	mailer *mockMailer
	tx     *rollbackTx
	uc     *otpUsecase
	clock  time.Time
}

func newOTPFixture(t *testing.T, cfg Config) *otpFixture {
	t.Helper()
	f := &otpFixture{
		users:  newFakeUserRepository(),
		otps:   newFakeOTPRepository(),
		mailer: &mockMailer{},
		clock:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.tx = &rollbackTx{otps: f.otps}
	f.uc = NewOTPUsecase(f.users, f.otps, f.tx, f.mailer, nil, cfg)
	f.uc.now = func() time.Time { return f.clock }
	f.uc.dispatch = syncDispatch
	return f
}

func (f *otpFixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func (f *otpFixture) lastCode(t *testing.T) string {
	t.Helper()
	m, ok := f.mailer.last()
	require.True(t, ok, "no mail was sent")
	return m.Code
}

func TestOTPUsecase_SendCode(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a six digit code and mails it", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())

		res, err := f.uc.SendCode(ctx, "  Alice@Example.COM ", entity.PurposeEmailVerification)
		require.NoError(t, err)
		assert.Equal(t, MessageCodeSent, res.Message)
		assert.Empty(t, res.DebugCode)

		rows := f.otps.all("alice@example.com", entity.PurposeEmailVerification)
		require.Len(t, rows, 1)
		assert.Len(t, rows[0].Code, 6)
		assert.GreaterOrEqual(t, rows[0].Code, "100000")
		assert.False(t, rows[0].Verified)
		assert.Equal(t, f.clock.Add(10*time.Minute), rows[0].ExpiresAt)

		m, ok := f.mailer.last()
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", m.To)
		assert.Equal(t, rows[0].Code, m.Code)
	})

	t.Run("second send leaves exactly one usable code", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())

		_, err := f.uc.SendCode(ctx, "a@x.com", entity.PurposeEmailVerification)
		require.NoError(t, err)
		first := f.lastCode(t)

		_, err = f.uc.SendCode(ctx, "a@x.com", entity.PurposeEmailVerification)
		require.NoError(t, err)
		second := f.lastCode(t)

		assert.Len(t, f.otps.all("a@x.com", entity.PurposeEmailVerification), 1)
		if first != second {
			assert.ErrorIs(t, f.uc.VerifyCode(ctx, "a@x.com", first, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
		}
		assert.NoError(t, f.uc.VerifyCode(ctx, "a@x.com", second, entity.PurposeEmailVerification))
	})

	t.Run("concurrent sends keep only the newest code valid", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.uc.SendCode(ctx, "race@x.com", entity.PurposeEmailVerification)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		rows := f.otps.all("race@x.com", entity.PurposeEmailVerification)
		require.NotEmpty(t, rows)
		newest := rows[len(rows)-1]

		for _, r := range rows[:len(rows)-1] {
			if r.Code == newest.Code {
				continue
			}
			assert.ErrorIs(t, f.uc.VerifyCode(ctx, "race@x.com", r.Code, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
		}
		assert.NoError(t, f.uc.VerifyCode(ctx, "race@x.com", newest.Code, entity.PurposeEmailVerification))
	})

	t.Run("verification for registered email fails", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		f.users.add(&entity.User{Email: "taken@x.com"})

		_, err := f.uc.SendCode(ctx, "taken@x.com", entity.PurposeEmailVerification)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		assert.Empty(t, f.mailer.sent)
	})

	t.Run("reset response does not reveal account existence", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		known := f.users.add(&entity.User{Email: "known@x.com"})

		resKnown, err := f.uc.SendCode(ctx, "known@x.com", entity.PurposePasswordReset)
		require.NoError(t, err)
		resUnknown, err := f.uc.SendCode(ctx, "nobody@x.com", entity.PurposePasswordReset)
		require.NoError(t, err)

		assert.Equal(t, MessageResetRequested, resKnown.Message)
		assert.Equal(t, resKnown, resUnknown)

		assert.Empty(t, f.otps.all("nobody@x.com", entity.PurposePasswordReset))
		assert.Equal(t, 2, f.otps.deleteAllCalls, "both branches touch the store")
		rows := f.otps.all("known@x.com", entity.PurposePasswordReset)
		require.Len(t, rows, 1)
		require.NotNil(t, rows[0].UserID)
		assert.Equal(t, known.ID, *rows[0].UserID)
		assert.Len(t, f.mailer.sent, 1)
	})

	t.Run("dev mode echoes code only when issued", func(t *testing.T) {
		cfg := testConfig()
		cfg.DevMode = true
		f := newOTPFixture(t, cfg)
		f.users.add(&entity.User{Email: "known@x.com"})

		res, err := f.uc.SendCode(ctx, "known@x.com", entity.PurposePasswordReset)
		require.NoError(t, err)
		assert.Equal(t, f.lastCode(t), res.DebugCode)

		res, err = f.uc.SendCode(ctx, "nobody@x.com", entity.PurposePasswordReset)
		require.NoError(t, err)
		assert.Empty(t, res.DebugCode)
	})

	t.Run("mail failure does not fail the request", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		f.mailer.SendErr = errors.New("smtp down")

		res, err := f.uc.SendCode(ctx, "a@x.com", entity.PurposeEmailVerification)
		require.NoError(t, err)
		assert.Equal(t, MessageCodeSent, res.Message)
		assert.Len(t, f.otps.all("a@x.com", entity.PurposeEmailVerification), 1)
	})

	t.Run("mail is sent with a context detached from the request", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		var pending func()
		f.uc.dispatch = func(fn func()) { pending = fn }

		reqCtx, cancel := context.WithCancel(ctx)
		_, err := f.uc.SendCode(reqCtx, "a@x.com", entity.PurposeEmailVerification)
		require.NoError(t, err)
		cancel()

		require.NotNil(t, pending)
		pending()
		_, ok := f.mailer.last()
		assert.True(t, ok)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		for _, email := range []string{"", "not-an-email", "Bob <bob@x.com>"} {
			_, err := f.uc.SendCode(ctx, email, entity.PurposeEmailVerification)
			assert.ErrorIs(t, err, ErrValidation, email)
		}
	})

	t.Run("unknown purpose", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, "a@x.com", entity.Purpose("LOGIN"))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rate limited per email", func(t *testing.T) {
		cfg := testConfig()
		cfg.SendLimit = ratelimit.Rule{Max: 2, Window: time.Minute}
		f := newOTPFixture(t, cfg)
		f.uc.limiter = ratelimit.NewMemory()

		for i := 0; i < 2; i++ {
			_, err := f.uc.SendCode(ctx, "a@x.com", entity.PurposeEmailVerification)
			require.NoError(t, err)
		}
		_, err := f.uc.SendCode(ctx, "A@x.com", entity.PurposeEmailVerification)
		assert.ErrorIs(t, err, ErrRateLimited)

		_, err = f.uc.SendCode(ctx, "b@x.com", entity.PurposeEmailVerification)
		assert.NoError(t, err)
	})
}

func TestOTPUsecase_VerifyCode(t *testing.T) {
	ctx := context.Background()
	const email = "a@x.com"

	t.Run("succeeds exactly once", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, email, entity.PurposeEmailVerification)
		require.NoError(t, err)
		code := f.lastCode(t)

		require.NoError(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification))

		rows := f.otps.all(email, entity.PurposeEmailVerification)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Verified)
		require.NotNil(t, rows[0].VerifiedAt)
		assert.Equal(t, f.clock, *rows[0].VerifiedAt)

		assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
	})

	t.Run("wrong code then correct code", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, email, entity.PurposeEmailVerification)
		require.NoError(t, err)
		code := f.lastCode(t)

		wrong := "123456"
		if code == wrong {
			wrong = "654321"
		}
		assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, wrong, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
		assert.NoError(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification))
	})

	t.Run("rejected after expiry", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, email, entity.PurposeEmailVerification)
		require.NoError(t, err)
		code := f.lastCode(t)

		f.advance(10*time.Minute + time.Millisecond)
		assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
	})

	t.Run("accepted just before expiry", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, email, entity.PurposeEmailVerification)
		require.NoError(t, err)
		code := f.lastCode(t)

		f.advance(10*time.Minute - time.Second)
		assert.NoError(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification))
	})

	t.Run("purpose scopes the code", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		f.users.add(&entity.User{Email: email})
		_, err := f.uc.SendCode(ctx, email, entity.PurposePasswordReset)
		require.NoError(t, err)
		code := f.lastCode(t)

		assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
		assert.NoError(t, f.uc.VerifyCode(ctx, email, code, entity.PurposePasswordReset))
	})

	t.Run("no code issued", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, "123456", entity.PurposeEmailVerification), ErrInvalidOrExpiredCode)
	})

	t.Run("malformed code", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		for _, code := range []string{"", "12345", "1234567", "12a456"} {
			assert.ErrorIs(t, f.uc.VerifyCode(ctx, email, code, entity.PurposeEmailVerification), ErrValidation, code)
		}
	})

	t.Run("removes stale rows but keeps the verified one", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		stale := &entity.OneTimeCode{Email: email, Code: "111111", Purpose: entity.PurposeEmailVerification, ExpiresAt: f.clock.Add(-time.Minute)}
		require.NoError(t, f.otps.Create(ctx, stale))
		current := &entity.OneTimeCode{Email: email, Code: "222222", Purpose: entity.PurposeEmailVerification, ExpiresAt: f.clock.Add(time.Minute)}
		require.NoError(t, f.otps.Create(ctx, current))

		require.NoError(t, f.uc.VerifyCode(ctx, email, "222222", entity.PurposeEmailVerification))

		rows := f.otps.all(email, entity.PurposeEmailVerification)
		require.Len(t, rows, 1)
		assert.Equal(t, current.ID, rows[0].ID)
	})
}

func TestOTPUsecase_ResetPassword(t *testing.T) {
	ctx := context.Background()
	const email = "known@x.com"

	setup := func(t *testing.T) (*otpFixture, *entity.User, string) {
		f := newOTPFixture(t, testConfig())
		hashed, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
		require.NoError(t, err)
		token := "legacy"
		expiry := f.clock
		user := f.users.add(&entity.User{Email: email, Password: string(hashed), ResetToken: &token, ResetTokenExpiry: &expiry})
		_, err = f.uc.SendCode(ctx, email, entity.PurposePasswordReset)
		require.NoError(t, err)
		return f, user, f.lastCode(t)
	}

	t.Run("replaces password and consumes code", func(t *testing.T) {
		f, user, code := setup(t)

		require.NoError(t, f.uc.ResetPassword(ctx, email, code, "new-password"))
		assert.Equal(t, 1, f.tx.calls)

		stored, err := f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")))
		assert.Nil(t, stored.ResetToken)
		assert.Nil(t, stored.ResetTokenExpiry)
		assert.Empty(t, f.otps.all(email, entity.PurposePasswordReset))

		assert.ErrorIs(t, f.uc.ResetPassword(ctx, email, code, "another-password"), ErrInvalidOrExpiredCode)
	})

	t.Run("works after the code was verified", func(t *testing.T) {
		f, _, code := setup(t)
		require.NoError(t, f.uc.VerifyCode(ctx, email, code, entity.PurposePasswordReset))
		assert.NoError(t, f.uc.ResetPassword(ctx, email, code, "new-password"))
	})

	t.Run("expired code", func(t *testing.T) {
		f, _, code := setup(t)
		f.advance(11 * time.Minute)
		assert.ErrorIs(t, f.uc.ResetPassword(ctx, email, code, "new-password"), ErrInvalidOrExpiredCode)
	})

	t.Run("wrong code", func(t *testing.T) {
		f, _, code := setup(t)
		wrong := "999999"
		if code == wrong {
			wrong = "100000"
		}
		assert.ErrorIs(t, f.uc.ResetPassword(ctx, email, wrong, "new-password"), ErrInvalidOrExpiredCode)
	})

	t.Run("email verification code is not accepted", func(t *testing.T) {
		f := newOTPFixture(t, testConfig())
		_, err := f.uc.SendCode(ctx, "new@x.com", entity.PurposeEmailVerification)
		require.NoError(t, err)
		assert.ErrorIs(t, f.uc.ResetPassword(ctx, "new@x.com", f.lastCode(t), "new-password"), ErrInvalidOrExpiredCode)
	})

	t.Run("user deleted after issuance", func(t *testing.T) {
		f, user, code := setup(t)
		require.NoError(t, f.users.DeleteCascade(ctx, user.ID))
		assert.ErrorIs(t, f.uc.ResetPassword(ctx, email, code, "new-password"), ErrUserNotFound)
	})

	t.Run("short password", func(t *testing.T) {
		f, _, code := setup(t)
		assert.ErrorIs(t, f.uc.ResetPassword(ctx, email, code, "short"), ErrValidation)
		assert.Len(t, f.otps.all(email, entity.PurposePasswordReset), 1)
	})

	t.Run("failed password update keeps the code usable", func(t *testing.T) {
		f, user, code := setup(t)
		f.users.UpdateErr = errors.New("db down")

		err := f.uc.ResetPassword(ctx, email, code, "new-password")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidOrExpiredCode)
		assert.Len(t, f.otps.all(email, entity.PurposePasswordReset), 1)

		f.users.UpdateErr = nil
		require.NoError(t, f.uc.ResetPassword(ctx, email, code, "new-password"))
		stored, err := f.users.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")))
	})

	t.Run("clears the login limiter", func(t *testing.T) {
		f, _, code := setup(t)
		limiter := ratelimit.NewMemory()
		f.uc.limiter = limiter
		for i := 0; i < 5; i++ {
			_, err := limiter.Check(ctx, loginLimitKey(email), 5, time.Minute)
			require.NoError(t, err)
		}

		require.NoError(t, f.uc.ResetPassword(ctx, email, code, "new-password"))

		res, err := limiter.Check(ctx, loginLimitKey(email), 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
