package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/auth"
)

const testSecret = "test-signing-key"

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = auth.Migrate(context.Background(), bunDB)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return bunDB
}

type testConfig struct {
	ttl          time.Duration
	issuer       string
	allowedRoles []string
	useHashid    bool
}

func (c testConfig) GetSigningKey() string { return testSecret }
func (c testConfig) GetTokenTTL() time.Duration {
	if c.ttl == 0 {
		return time.Hour
	}
	return c.ttl
}
func (c testConfig) GetIssuer() string {
	if c.issuer == "" {
		return "coursehub-test"
	}
	return c.issuer
}
func (c testConfig) GetContextKey() string     { return "user" }
func (c testConfig) GetTokenLookup() string    { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string     { return "Bearer" }
func (c testConfig) GetBcryptCost() int        { return bcrypt.MinCost }
func (c testConfig) GetAllowedRoles() []string { return c.allowedRoles }
func (c testConfig) GetUseHashid() bool        { return c.useHashid }

func newTokenService(t *testing.T, opts ...auth.TokenServiceOption) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService([]byte(testSecret), time.Hour, "coursehub-test", nil, opts...)
	require.NoError(t, err)
	return ts
}

func fastHasher() auth.PasswordHasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

// seedUser stores a user with the given plaintext password
func seedUser(t *testing.T, users auth.Users, email, password, role string) *auth.User {
	t.Helper()
	hash, err := fastHasher().Hash(password)
	require.NoError(t, err)

	user, err := users.Create(context.Background(), &auth.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Avatar:       auth.GravatarURL(email, auth.DefaultGravatarOptions),
	})
	require.NoError(t, err)
	return user
}

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) List(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*auth.User)
	return users, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*auth.User)
	return created, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	created, _ := args.Get(0).(*auth.User)
	return created, args.Error(1)
}

// RunInTx runs fn with a zero transaction; CreateTx expectations match it
// with mock.Anything
func (m *MockUsers) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

// fieldErrors returns the field messages of a validation error
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	fields, ok := auth.ValidationFields(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	return fields
}

// recordingLogger keeps every entry for assertions
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprint(append([]any{level, " ", msg, " "}, args...)...))
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }

func (l *recordingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.ActivityEvent(nil), s.events...)
}
