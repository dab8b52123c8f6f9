// Package handlers provides HTTP handler implementations for the form
// collector.
//
// This file defines the standard response utilities used across all endpoints:
// structured error envelopes, the error-kind → status mapping, and helpers for
// common success responses.
//
// Conventions:
//   - All JSON error responses carry an ErrorResponse with a stable `code`.
//   - `respondError()` is the single place where service errors become HTTP
//     statuses: validation → 400, storage and anything else → 500.
//   - `fail()` writes the envelope and logs 5xx responses with request context.
//
// Example error response:
//
//	HTTP/1.1 500 Internal Server Error
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "storage_failed",
//	  "message": "internal server error"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-collector/internal/http/middleware"
	"github.com/tbourn/go-form-collector/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// ValidationErrorResponse extends ErrorResponse with one entry per failing
// field.
type ValidationErrorResponse struct {
	ErrorResponse
	Errors []services.FieldError `json:"errors"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged using the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// respondError translates a service error into an HTTP response.
//
//   - *services.ValidationError → 400 with the field list.
//   - *services.StorageError    → 500 storage_failed; cause logged only.
//   - anything else             → 500 internal_error; cause logged only.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeValidationFailed,
				Message:   "validation failed",
			},
			Errors: ve.Fields,
		})
		return
	}

	lg := middleware.LoggerFrom(c)
	var se *services.StorageError
	if errors.As(err, &se) {
		lg.Error().Err(se.Err).Str("op", se.Op).Msg("storage failure")
		fail(c, http.StatusInternalServerError, ErrCodeStorageFailed, internalMessage)
		return
	}

	lg.Error().Err(err).Msg("unexpected error")
	fail(c, http.StatusInternalServerError, ErrCodeInternal, internalMessage)
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
