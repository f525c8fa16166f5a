// Package errors defines custom error types and error handling utilities for
// the port authentication service. Every failure carries a machine-readable
// code from pkg/constants so no layer collapses distinct causes into a generic
// error, and the HTTP boundary can map codes to statuses without string
// matching.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/logigrain/portauth/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// AppError is a structured error with a stable code, an HTTP status for the
// API boundary, and optional diagnostic metadata.
type AppError interface {
	error

	// Code returns the machine-readable error code.
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code this error maps to.
	HTTPStatus() int

	// Description returns a human-readable, non-sensitive description.
	Description() string

	// Unwrap returns the underlying cause for error chain support.
	Unwrap() error

	// WithCause attaches a cause to the error chain.
	WithCause(cause error) AppError

	// WithMetadata attaches additional diagnostic context.
	WithMetadata(key string, value interface{}) AppError

	// Metadata returns all attached metadata.
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.description)
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) WithCause(cause error) AppError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// NewError creates a new AppError with the given code, HTTP status, and
// description.
func NewError(code constants.ErrorCode, httpStatus int, description string) AppError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
	}
}

// ================================================================================
// Code Inspection Helpers
// ================================================================================

// CodeOf extracts the error code from err's chain. Errors without a code
// report as internal.
func CodeOf(err error) constants.ErrorCode {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return constants.ErrCodeInternal
}

// HTTPStatusOf extracts the HTTP status from err's chain, defaulting to 500.
func HTTPStatusOf(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err's chain carries the given code.
func IsCode(err error, code constants.ErrorCode) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code() == code
	}
	return false
}

// IsAccessDenied reports whether err is a grant-check failure.
func IsAccessDenied(err error) bool { return IsCode(err, constants.ErrCodeAccessDenied) }

// IsNotFound reports whether err is a missing-record failure.
func IsNotFound(err error) bool { return IsCode(err, constants.ErrCodeNotFound) }

// IsGatewayError reports whether err originated at the WSAA gateway layer.
func IsGatewayError(err error) bool {
	switch CodeOf(err) {
	case constants.ErrCodeGatewayTransport,
		constants.ErrCodeGatewayMalformedResponse,
		constants.ErrCodeGatewayRemoteRejected,
		constants.ErrCodeGatewayUnrecognizedResponse:
		return true
	}
	return false
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrAccessDenied creates an access denied error for an operator/facility pair.
func ErrAccessDenied(operatorID int64, facilityCode string) AppError {
	return NewError(
		constants.ErrCodeAccessDenied,
		http.StatusForbidden,
		fmt.Sprintf("operator %d has no enabled grant for facility %s", operatorID, facilityCode),
	).WithMetadata("operator_id", operatorID).
		WithMetadata("facility_code", facilityCode)
}

// ErrSigningIdentityMissing creates an error for absent or unreadable
// certificate/key material. The message never includes the material itself.
func ErrSigningIdentityMissing(detail string) AppError {
	return NewError(
		constants.ErrCodeSigningIdentityMissing,
		http.StatusInternalServerError,
		fmt.Sprintf("signing identity unavailable: %s", detail),
	)
}

// ErrSigningFailed creates an error for a failed CMS construction or external
// signing tool run.
func ErrSigningFailed(detail string) AppError {
	return NewError(
		constants.ErrCodeSigningFailed,
		http.StatusInternalServerError,
		fmt.Sprintf("request signing failed: %s", detail),
	)
}

// ErrGatewayTransport creates an error for a transport-level gateway failure.
func ErrGatewayTransport(cause error) AppError {
	return NewError(
		constants.ErrCodeGatewayTransport,
		http.StatusServiceUnavailable,
		"authentication gateway unreachable",
	).WithCause(cause)
}

// ErrGatewayMalformedResponse creates an error for a response body that is not
// well-formed XML. The raw body travels as metadata for diagnostics.
func ErrGatewayMalformedResponse(rawBody string) AppError {
	return NewError(
		constants.ErrCodeGatewayMalformedResponse,
		http.StatusServiceUnavailable,
		"authentication gateway returned a malformed response",
	).WithMetadata("raw_body", rawBody)
}

// ErrGatewayRemoteRejected creates an error carrying the gateway fault string
// verbatim.
func ErrGatewayRemoteRejected(faultString string) AppError {
	return NewError(
		constants.ErrCodeGatewayRemoteRejected,
		http.StatusServiceUnavailable,
		faultString,
	).WithMetadata("fault_string", faultString)
}

// ErrGatewayUnrecognizedResponse creates an error for a well-formed response
// carrying neither credentials nor a fault.
func ErrGatewayUnrecognizedResponse() AppError {
	return NewError(
		constants.ErrCodeGatewayUnrecognizedResponse,
		http.StatusServiceUnavailable,
		"authentication gateway response contains neither credentials nor a fault",
	)
}

// ErrCacheStore creates an error for a ticket store failure.
func ErrCacheStore(cause error) AppError {
	return NewError(
		constants.ErrCodeCacheStore,
		http.StatusInternalServerError,
		"ticket store operation failed",
	).WithCause(cause)
}

// ErrInvalidRequest creates a client-request validation error.
func ErrInvalidRequest(detail string) AppError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		detail,
	)
}

// ErrUnauthorized creates a missing/invalid session error.
func ErrUnauthorized(detail string) AppError {
	return NewError(
		constants.ErrCodeUnauthorized,
		http.StatusUnauthorized,
		detail,
	)
}

// ErrRateLimitExceeded creates a rate limit exceeded error.
func ErrRateLimitExceeded(scope string, limit int) AppError {
	return NewError(
		constants.ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		fmt.Sprintf("rate limit exceeded for %s: %d requests per window", scope, limit),
	).WithMetadata("scope", scope).
		WithMetadata("limit", limit)
}

// ErrNotFound creates a missing-record error.
func ErrNotFound(what string) AppError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		fmt.Sprintf("%s not found", what),
	)
}

// ErrInternal creates a generic internal error. Prefer a specific constructor
// whenever the cause is known.
func ErrInternal(detail string) AppError {
	return NewError(
		constants.ErrCodeInternal,
		http.StatusInternalServerError,
		detail,
	)
}
