package dto

import (
	"time"

	"beneficio/internal/domain/auth"
)

// LoginRequest carries user credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued token and the account it belongs to.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// RegisterUserRequest creates an account. Admin only.
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nombre   string `json:"nombre"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// UserResponse is the public view of an account. The hash never leaves the
// server.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Nombre      string     `json:"nombre"`
	IsActive    bool       `json:"isActive"`
	IsAdmin     bool       `json:"isAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser creates UserResponse from auth.User.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Nombre:      u.Nombre,
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// FromUsers maps a slice of accounts.
func FromUsers(users []auth.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, FromUser(&users[i]))
	}
	return out
}
