package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Stage names the pipeline step an error originated from.
type Stage string

const (
	// StageClaimResolution covers assertion selection and provider introspection.
	StageClaimResolution Stage = "claim_resolution"
	// StageAccessDenied is an authenticated identity outside the allow-list.
	StageAccessDenied Stage = "access_denied"
	// StageKeyRetrieval covers fetching the signing key from the key store.
	StageKeyRetrieval Stage = "key_retrieval"
	// StageSigning covers key parsing and cookie signing.
	StageSigning Stage = "signing"
)

// ErrorCode categorizes the failure within a stage.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates the caller sent no usable assertion.
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	// ErrCodeInvalidAssertion indicates the provider rejected the assertion.
	ErrCodeInvalidAssertion ErrorCode = "invalid_assertion"
	// ErrCodeForbidden indicates the identity is not allow-listed.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeUnavailable indicates an upstream dependency failed or answered garbage.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeNotFound indicates the signing key is absent from the key store.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates a local fault such as malformed key material.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a step exceeded its deadline.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the invocation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a terminal authorizer failure.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	Stage   Stage
	Code    ErrorCode
	Message string
	Cause   error
	// Email is set on access denial for audit logging.
	Email string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ClaimResolution creates a claim resolution error.
func ClaimResolution(code ErrorCode, message string, cause error) *AppError {
	return newStageError(StageClaimResolution, code, message, cause)
}

// AccessDenied creates a denial for email.
func AccessDenied(email string) *AppError {
	return &AppError{
		Stage:   StageAccessDenied,
		Code:    ErrCodeForbidden,
		Message: "access denied",
		Email:   email,
	}
}

// KeyRetrieval creates a key retrieval error.
func KeyRetrieval(code ErrorCode, message string, cause error) *AppError {
	return newStageError(StageKeyRetrieval, code, message, cause)
}

// Signing creates a signing error.
func Signing(message string, cause error) *AppError {
	return newStageError(StageSigning, ErrCodeInternal, message, cause)
}

// Wrapf wraps err into a stage error, replacing code with timeout/canceled
// when the cause is a context error.
func Wrapf(err error, stage Stage, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return newStageError(stage, code, fmt.Sprintf(format, args...), err)
}

func newStageError(stage Stage, code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Stage:   stage,
		Code:    contextCode(cause, code),
		Message: message,
		Cause:   cause,
	}
}

func contextCode(err error, fallback ErrorCode) ErrorCode {
	switch {
	case err == nil:
		return fallback
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	default:
		return fallback
	}
}

// isStage checks if an error belongs to a specific stage.
func isStage(err error, stage Stage) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stage == stage
	}
	return false
}

// IsClaimResolution checks if an error is a ClaimResolutionError.
func IsClaimResolution(err error) bool {
	return isStage(err, StageClaimResolution)
}

// IsAccessDenied checks if an error is an AccessDeniedError.
func IsAccessDenied(err error) bool {
	return isStage(err, StageAccessDenied)
}

// IsKeyRetrieval checks if an error is a KeyRetrievalError.
func IsKeyRetrieval(err error) bool {
	return isStage(err, StageKeyRetrieval)
}

// IsSigning checks if an error is a SigningError.
func IsSigning(err error) bool {
	return isStage(err, StageSigning)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetStage returns the Stage from an error, or empty string if not an AppError.
func GetStage(err error) Stage {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Stage
	}
	return ""
}

// GetEmail returns the rejected email carried by an access denial.
func GetEmail(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Email
	}
	return ""
}

// HTTPStatus maps an error to the status a caller should present.
// Denials map to 4xx; infrastructure faults map to 5xx.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCode(err) {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeInvalidAssertion:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeUnavailable:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsDenial reports whether err is a clean client-side denial rather than an infrastructure fault.
func IsDenial(err error) bool {
	status := HTTPStatus(err)
	return status >= 400 && status < 500
}
