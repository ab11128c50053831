package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
)

type memUsers struct {
	mu    sync.Mutex
	users map[id.ID]User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[id.ID]User)}
}

func (m *memUsers) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		cp := u
		return &cp, nil
	}
	return nil, apperror.NewNotFound("user", userID.String())
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (m *memUsers) Update(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) List(ctx context.Context, soloActivos bool) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for _, u := range m.users {
		if soloActivos && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Exists(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(store *memUsers) *Service {
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(store, nopTx{}, jwtSvc, DefaultServiceConfig())
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemUsers()
	svc := newTestService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "admin",
		Password: "s3cret-pass",
		Nombre:   "Administrador",
		IsAdmin:  true,
	})
	require.NoError(t, err)
	require.NotEqual(t, user.PasswordHash, "s3cret-pass")

	token, logged, err := svc.Login(ctx, Credentials{Username: "admin", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, user.ID, logged.ID)
	require.NotNil(t, logged.LastLoginAt)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	store := newMemUsers()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "ana", Password: "password2"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newTestService(newMemUsers())

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "ana", Password: "corta"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestLogin_WrongPasswordLocksAfterMaxAttempts(t *testing.T) {
	store := newMemUsers()
	svc := newTestService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err = svc.Login(ctx, Credentials{Username: "ana", Password: "wrong"})
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	}

	// Even the correct password is rejected while locked.
	_, _, err = svc.Login(ctx, Credentials{Username: "ana", Password: "password1"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLocked())
}

func TestLogin_InactiveUser(t *testing.T) {
	store := newMemUsers()
	svc := newTestService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateUser(ctx, user.ID))

	_, _, err = svc.Login(ctx, Credentials{Username: "ana", Password: "password1"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestChangePassword(t *testing.T) {
	store := newMemUsers()
	svc := newTestService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong", "password2")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "password1", "password2"))

	stored, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password2")))
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	token, expiresAt, err := svc.GenerateAccessToken("uid-1", "ana", true)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.UserID)
	assert.Equal(t, "ana", user.Username)
	assert.True(t, user.IsAdmin)
}

func TestJWT_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken("uid-1", "ana", false)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestJWT_RejectsExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("uid-1", "ana", false)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
