package constants

const (
	ErrCodeValidationFailed      = "VALIDATION_FAILED"
	ErrCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeAccountDeactivated    = "ACCOUNT_DEACTIVATED"
	ErrCodeNoToken               = "NO_TOKEN"
	ErrCodeInvalidToken          = "INVALID_TOKEN"
	ErrCodeTokenExpired          = "TOKEN_EXPIRED"
	ErrCodeUserInactiveOrMissing = "USER_INACTIVE"
	ErrCodeUnauthenticated       = "UNAUTHENTICATED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeRateLimited           = "RATE_LIMITED"
	ErrCodeInternal              = "INTERNAL_ERROR"
)
