// Package apperr defines the closed set of failure kinds surfaced to API
// clients. Services return *Error values; the HTTP layer maps each Kind to a
// status code and a stable error code.
package apperr

import (
	"errors"
	"net/http"

	"blogify/internal/constants"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindInvalidCredentials
	KindAccountDeactivated
	KindNoToken
	KindInvalidToken
	KindTokenExpired
	KindUserInactiveOrMissing
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindRateLimited
)

func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateEmail:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindAccountDeactivated, KindNoToken, KindInvalidToken,
		KindTokenExpired, KindUserInactiveOrMissing, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return constants.ErrCodeValidationFailed
	case KindDuplicateEmail:
		return constants.ErrCodeDuplicateEmail
	case KindInvalidCredentials:
		return constants.ErrCodeInvalidCredentials
	case KindAccountDeactivated:
		return constants.ErrCodeAccountDeactivated
	case KindNoToken:
		return constants.ErrCodeNoToken
	case KindInvalidToken:
		return constants.ErrCodeInvalidToken
	case KindTokenExpired:
		return constants.ErrCodeTokenExpired
	case KindUserInactiveOrMissing:
		return constants.ErrCodeUserInactiveOrMissing
	case KindUnauthenticated:
		return constants.ErrCodeUnauthenticated
	case KindForbidden:
		return constants.ErrCodeForbidden
	case KindNotFound:
		return constants.ErrCodeNotFound
	case KindRateLimited:
		return constants.ErrCodeRateLimited
	default:
		return constants.ErrCodeInternal
	}
}

// FieldError describes a single violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation builds a KindValidation error carrying field-level details.
func Validation(fields ...FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "Validation failed",
		Fields:  fields,
	}
}

// Internal wraps an unexpected infrastructure failure. The message is the
// only part ever shown to clients.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// As extracts the *Error from err's chain. Errors that are not *Error are
// reported as internal failures.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return As(err).Kind
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
