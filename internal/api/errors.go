package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/http/response"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It serializes as the failure envelope.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Success bool   `json:"success" doc:"Always false"`
	Message string `json:"error" doc:"Human-readable error message"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(status int, code domainerrors.Code, message string, details any) *APIError {
	return &APIError{
		status:  status,
		Code:    string(code),
		Message: message,
		Details: details,
	}
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(domainErr.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Details)
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return newAPIError(storeErr.HTTPCode(), response.CodeForStatus(storeErr.HTTPCode()), storeErr.Message, nil)
			}
		}

		// Request validation failures from huma are reported as 400s with the
		// per-field messages as details.
		if status == http.StatusUnprocessableEntity {
			return newAPIError(http.StatusBadRequest, domainerrors.CodeValidation, message, validationDetails(errs))
		}

		if status >= http.StatusInternalServerError {
			message = "internal server error"
		}
		return newAPIError(status, response.CodeForStatus(status), message, nil)
	}
}

func validationDetails(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		details = append(details, err.Error())
	}
	return details
}

// EnvelopeTransformer wraps successful response bodies in the standard
// envelope. Error bodies are already envelopes; raw byte bodies are
// downloads and pass through untouched.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch v.(type) {
	case nil, []byte, *APIError, response.Envelope:
		return v, nil
	}
	if len(status) > 0 && status[0] != '2' {
		return v, nil
	}
	return response.Wrap(v), nil
}
