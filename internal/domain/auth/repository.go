package auth

import (
	"context"

	"beneficio/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	List(ctx context.Context, soloActivos bool) ([]User, error)
	Exists(ctx context.Context, username string) (bool, error)
}
