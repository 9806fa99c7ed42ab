package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the failure class an operation surfaced.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"
	ErrCodeConflict   ErrorCode = "CONFLICT"

	// Atomic batch or transaction failed to commit; the whole operation had
	// no effect and is safe to retry.
	ErrCodeTransientStore ErrorCode = "TRANSIENT_STORE_ERROR"

	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeSignature    ErrorCode = "SIGNATURE_ERROR"
	ErrCodeExternal     ErrorCode = "EXTERNAL_DEPENDENCY_ERROR"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error type every service returns across the delivery
// boundary. Message is safe to show to the caller.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func NewNotFoundError(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewForbiddenError(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NewConflictError(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// NewTransientStoreError marks a failed commit. Callers see a generic retry
// message; the underlying store error stays in the log.
func NewTransientStoreError(err error) *AppError {
	return Wrap(err, ErrCodeTransientStore, "Something went wrong. Please try again.")
}

func NewExternalError(dependency string, err error) *AppError {
	return Wrap(err, ErrCodeExternal, fmt.Sprintf("%s is unavailable. Please try again.", dependency))
}

// Code extracts the ErrorCode from any error, defaulting to internal.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// As unwraps err to an *AppError when possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HTTPStatus maps an error to the status the delivery layer responds with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnauthorized, ErrCodeSignature:
		return http.StatusUnauthorized
	case ErrCodeTransientStore, ErrCodeExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
