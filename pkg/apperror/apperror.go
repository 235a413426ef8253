package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")

	// Gateway failures. Each one is folded into the view that triggered it.
	ErrSession    = errors.New("session error")
	ErrRoleLookup = errors.New("role lookup error")
	ErrQuery      = errors.New("query error")
	ErrUpload     = errors.New("upload error")
	ErrSave       = errors.New("save error")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

// Cause returns the wrapped gateway or driver error, if any.
func (e *AppError) Cause() error {
	return e.Err
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Please sign in", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

// The gateway constructors keep the gateway's own message as Message so it
// can be shown to the user verbatim.

func NewSessionError(err error) *AppError {
	return NewAppError(ErrSession, gatewayMessage(err, "Could not determine the signed-in user"), "session lookup failed", err)
}

func NewRoleLookupError(err error) *AppError {
	return NewAppError(ErrRoleLookup, gatewayMessage(err, "Could not load your role"), "user_roles query failed", err)
}

func NewQueryError(table string, err error) *AppError {
	return NewAppError(ErrQuery, gatewayMessage(err, "Could not load "+table), table+" query failed", err)
}

func NewUploadError(bucket, path string, err error) *AppError {
	return NewAppError(ErrUpload, gatewayMessage(err, "Upload failed"), fmt.Sprintf("upload to %s/%s failed", bucket, path), err)
}

func NewSaveError(err error) *AppError {
	return NewAppError(ErrSave, gatewayMessage(err, "Could not save profile"), "profiles upsert failed", err)
}

// GatewayError is returned by adapters when the remote service answered with
// an error payload. Its Message is what the service said.
type GatewayError struct {
	Op      string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func gatewayMessage(err error, fallback string) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return fallback
}

// DisplayMessage returns the user-facing text for err.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func ToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSession):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrQuery), errors.Is(err, ErrUpload), errors.Is(err, ErrSave), errors.Is(err, ErrRoleLookup):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
