package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"budget_backend/internal/feature/auth/domain/entity"
)

// fakeUserRepository is an in-memory UserRepository.
type fakeUserRepository struct {
	mu      sync.Mutex
	nextID  uint
	byID    map[uint]*entity.User
	deleted []uint

	// CreateErr, when set, is returned by Create.
	CreateErr error
	// DeleteErr, when set, is returned by DeleteCascade.
	DeleteErr error
	// UpdateErr, when set, is returned by Update.
	UpdateErr error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byID: make(map[uint]*entity.User)}
}

func (f *fakeUserRepository) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	for _, u := range f.byID {
		if u.Email == user.Email {
			return ErrAlreadyRegistered
		}
	}
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserRepository) FindByID(_ context.Context, id uint) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepository) Update(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if _, ok := f.byID[user.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUserRepository) DeleteCascade(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// add stores a user directly, bypassing uniqueness checks.
func (f *fakeUserRepository) add(user *entity.User) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	cp := *user
	f.byID[user.ID] = &cp
	return user
}

// fakeOTPRepository is an in-memory OTPRepository.
type fakeOTPRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*entity.OneTimeCode

	deleteAllCalls int
}

func newFakeOTPRepository() *fakeOTPRepository {
	return &fakeOTPRepository{rows: make(map[uint]*entity.OneTimeCode)}
}

func (f *fakeOTPRepository) Create(_ context.Context, otp *entity.OneTimeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	otp.ID = f.nextID
	cp := *otp
	f.rows[otp.ID] = &cp
	return nil
}

func (f *fakeOTPRepository) DeleteAll(_ context.Context, email string, purpose entity.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteAllCalls++
	for id, r := range f.rows {
		if r.Email == email && r.Purpose == purpose {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeOTPRepository) FindLatest(_ context.Context, email string, purpose entity.Purpose) (*entity.OneTimeCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entity.OneTimeCode
	for _, r := range f.rows {
		if r.Email != email || r.Purpose != purpose {
			continue
		}
		if latest == nil || r.ID > latest.ID {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrOTPNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeOTPRepository) MarkVerified(_ context.Context, id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Verified {
		return ErrOTPNotFound
	}
	r.Verified = true
	r.VerifiedAt = &at
	return nil
}

func (f *fakeOTPRepository) DeleteStale(_ context.Context, email string, purpose entity.Purpose, now time.Time, keepID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.rows {
		if id == keepID || r.Email != email || r.Purpose != purpose {
			continue
		}
		if r.Verified || r.IsExpired(now) {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeOTPRepository) Consume(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return ErrOTPNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeOTPRepository) DeleteExpired(_ context.Context, before time.Time, verifiedWindow time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.rows {
		if r.ExpiresAt.Before(before) && !r.VerifiedWithin(before, verifiedWindow) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

// all returns the rows for (email, purpose) ordered by ID.
func (f *fakeOTPRepository) all(email string, purpose entity.Purpose) []entity.OneTimeCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.OneTimeCode
	for _, r := range f.rows {
		if r.Email == email && r.Purpose == purpose {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// snapshot copies every row so a failed transaction can restore them.
func (f *fakeOTPRepository) snapshot() map[uint]entity.OneTimeCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint]entity.OneTimeCode, len(f.rows))
	for id, r := range f.rows {
		out[id] = *r
	}
	return out
}

func (f *fakeOTPRepository) restore(snap map[uint]entity.OneTimeCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = make(map[uint]*entity.OneTimeCode, len(snap))
	for id, r := range snap {
		cp := r
		f.rows[id] = &cp
	}
}

// mockMailer records delivered codes.
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	// SendErr, when set, is returned by SendOTP.
	SendErr error
}

type sentMail struct {
	To      string
	Code    string
	Purpose entity.Purpose
}

func (m *mockMailer) SendOTP(_ context.Context, to, code string, purpose entity.Purpose, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Code: code, Purpose: purpose})
	return m.SendErr
}

func (m *mockMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// mockSeeder records seeded user IDs.
type mockSeeder struct {
	SeedFunc func(userID uint) error
	seeded   []uint
}

func (m *mockSeeder) SeedDefaults(_ context.Context, userID uint) error {
	if m.SeedFunc != nil {
		if err := m.SeedFunc(userID); err != nil {
			return err
		}
	}
	m.seeded = append(m.seeded, userID)
	return nil
}

// mockTokenManager is a mock implementation of TokenManager.
type mockTokenManager struct {
	GenerateTokenFunc func(userID uint, email string, role entity.Role) (string, error)
	ParseTokenFunc    func(token string) (*entity.Claims, error)
}

func (m *mockTokenManager) GenerateToken(userID uint, email string, role entity.Role) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, email, role)
	}
	return "mock-jwt-token", nil
}

func (m *mockTokenManager) ParseToken(token string) (*entity.Claims, error) {
	if m.ParseTokenFunc != nil {
		return m.ParseTokenFunc(token)
	}
	return nil, errors.New("invalid token")
}

// fakeRevocationStore is an in-memory RevocationStore.
type fakeRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]entity.RevokedToken
	// Err, when set, is returned by every method.
	Err error
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{revoked: make(map[string]entity.RevokedToken)}
}

func (f *fakeRevocationStore) Revoke(_ context.Context, t *entity.RevokedToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.revoked[t.TokenID] = *t
	return nil
}

func (f *fakeRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

// recordingTx runs fn directly and counts invocations.
type recordingTx struct {
	calls int
}

func (r *recordingTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

// rollbackTx restores the OTP fake when fn fails, like a database rollback.
type rollbackTx struct {
	otps  *fakeOTPRepository
	calls int
}

func (r *rollbackTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	snap := r.otps.snapshot()
	if err := fn(ctx); err != nil {
		r.otps.restore(snap)
		return err
	}
	return nil
}

// testConfig returns DefaultConfig with the cheapest bcrypt cost.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BcryptCost = 4
	return cfg
}

// syncDispatch runs dispatched work inline so tests can observe it.
func syncDispatch(f func()) { f() }
