package http

import (
	"errors"
	"net/http"
	"strings"

	"agencycrm/internal/core"
	"agencycrm/internal/log"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var br *badRequestError
	switch {
	case errors.As(err, &br),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidGrouping):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorTypeFor names the error category for logs.
func errorTypeFor(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusForbidden:
		return log.ErrorTypeForbidden
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeInternal
	}
}

// writeError logs err and writes the JSON error envelope. Internal errors
// are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context())

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, operation,
			log.FieldError, err.Error(),
			"error_type", errorTypeFor(status))
		msg = "internal error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldOperation, operation,
			log.FieldError, err.Error(),
			"error_type", errorTypeFor(status))
	}
	ErrorResponse(status, msg).Write(w)
}
