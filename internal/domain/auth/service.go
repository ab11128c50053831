package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
	"beneficio/internal/core/tx"
	"beneficio/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
	}
}

// Service provides authentication logic.
type Service struct {
	users      UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(users UserRepository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{
		users:      users,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
	}
}

// Register registers a new user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Username == "" {
		return nil, apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.users.Exists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("username already registered").WithDetail("username", req.Username)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(req.Username, string(passwordHash))
	user.Nombre = req.Nombre
	user.IsAdmin = req.IsAdmin

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"username", user.Username)

	return user, nil
}

// Login authenticates user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.users.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin()
	if err := s.users.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Username, user.IsAdmin)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)

	return &Token{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, user, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListUsers lists users.
func (s *Service) ListUsers(ctx context.Context, soloActivos bool) ([]User, error) {
	return s.users.List(ctx, soloActivos)
}

// ChangePassword verifies the current password and replaces it.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	if len(next) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("invalid credentials")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now().UTC()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, user)
	})
}

// DeactivateUser disables a user account.
func (s *Service) DeactivateUser(ctx context.Context, userID id.ID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.users.Update(ctx, user)
	})
}
