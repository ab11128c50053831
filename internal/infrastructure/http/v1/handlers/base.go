package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"beneficio/internal/core/apperror"
	appctx "beneficio/internal/core/context"
	"beneficio/internal/core/id"
	"beneficio/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses a path parameter as an entity ID.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", param).
			WithDetail("value", c.Param(param)))
		return id.ID{}, false
	}
	return parsed, true
}

// ParseOptionalID parses an optional string as an entity ID; nil stays nil.
func (h *BaseHandler) ParseOptionalID(c *gin.Context, field string, value *string) (*id.ID, bool) {
	if value == nil || *value == "" {
		return nil, true
	}
	parsed, err := id.Parse(*value)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", *value))
		return nil, false
	}
	return &parsed, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// BoolQuery parses a boolean query parameter; anything but "true"/"1" is false.
func (h *BaseHandler) BoolQuery(c *gin.Context, key string) bool {
	v := c.Query(key)
	return v == "true" || v == "1"
}

// GetUserID extracts user ID from request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, dto.IDResponse{ID: id})
}

// CreatedData sends 201 response with a body.
func (h *BaseHandler) CreatedData(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
