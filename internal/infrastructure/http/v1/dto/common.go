// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"beneficio/internal/core/id"
)

// --- List envelope ---

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// NewListResponse wraps a slice for the API. Count is the page size, not a
// total across pages.
func NewListResponse[T any](items []T) ListResponse {
	if items == nil {
		items = []T{}
	}
	return ListResponse{Items: items, Count: len(items)}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
