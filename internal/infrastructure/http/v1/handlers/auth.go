package handlers

import (
	"github.com/gin-gonic/gin"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
	"beneficio/internal/domain/auth"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and account management.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(), service: service}
}

// Login exchanges credentials for an access token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), auth.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        dto.FromUser(user),
	})
}

// Register creates an account. Admin only.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), auth.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Nombre:   req.Nombre,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, dto.FromUser(user))
}

// Me returns the caller's account.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// ChangePassword rotates the caller's password.
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password changed")
}

// ListUsers returns accounts. Admin only.
// GET /api/v1/users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), h.BoolQuery(c, "soloActivos"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromUsers(users)))
}

// DeactivateUser disables an account. Admin only.
// POST /api/v1/users/:id/deactivate
func (h *AuthHandler) DeactivateUser(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateUser(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
