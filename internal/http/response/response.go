// Package response provides the JSON envelope shared by every API response
// and helpers for writing it from plain net/http handlers.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// Envelope provides a consistent JSON response structure.
//
// Successful responses carry Data; failures carry Error, Code and optionally
// Details.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Null encodes as JSON null. Wrap(Null{}) yields "data": null where a nil
// Data would be omitted.
type Null struct{}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Wrap builds a success envelope around data.
func Wrap(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// JSON writes data inside a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Wrap(data), logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, code domainerrors.Code, message string, logger *slog.Logger) {
	write(w, status, Envelope{
		Success: false,
		Error:   message,
		Code:    string(code),
	}, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, domainerrors.CodeUnauthorized, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, domainerrors.CodeNotFound, message, logger)
}

// MethodNotAllowed writes a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, domainerrors.CodeValidation, "method not allowed", logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, domainerrors.CodeInternal, message, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors keep their status; unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		write(w, domainErr.HTTPStatus(), Envelope{
			Success: false,
			Error:   domainErr.Message,
			Code:    string(domainErr.Code),
			Details: domainErr.Details,
		}, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		Error(w, storeErr.HTTPCode(), CodeForStatus(storeErr.HTTPCode()), storeErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

// CodeForStatus maps an HTTP status onto the closest error code.
func CodeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusMethodNotAllowed:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeAlreadyExists
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}
