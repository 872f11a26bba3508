package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAlreadyExists is returned on a uniqueness violation. The message is
	// deliberately generic so login-adjacent flows never reveal which field
	// collided.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// It does not distinguish "no such user" from "wrong password".
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAuthRequired is returned when no token accompanies the request.
	ErrAuthRequired = errors.New("authentication required")
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken is returned for malformed or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotAMember is returned when the caller has no active membership in
	// the requested tenant.
	ErrNotAMember = errors.New("not a member of this tenant")
	// ErrInsufficientRole is returned when the caller's role is below the
	// required level.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrTenantNotFound is returned when a referenced tenant does not exist
	// or is inactive.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrRegistrationClosed is returned when joining a tenant that does not
	// allow self-registration.
	ErrRegistrationClosed = errors.New("tenant does not allow self-registration")
)

// ValidationError reports malformed input with field detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors map to an
// opaque 500 so store internals never leak to callers.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
	}

	switch {
	case errors.Is(err, ErrAlreadyExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "ALREADY_EXISTS")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrAuthRequired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "AUTH_REQUIRED")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrNotAMember):
		return NewHTTPError(http.StatusForbidden, err.Error(), "NOT_A_MEMBER")
	case errors.Is(err, ErrInsufficientRole):
		return NewHTTPError(http.StatusForbidden, err.Error(), "INSUFFICIENT_ROLE")
	case errors.Is(err, ErrRegistrationClosed):
		return NewHTTPError(http.StatusForbidden, err.Error(), "REGISTRATION_CLOSED")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrTenantNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TENANT_NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
