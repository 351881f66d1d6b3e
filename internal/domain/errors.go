package domain

import "errors"

// Domain errors
var (
	ErrNotConfigured      = errors.New("feature limit not configured")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnknownFeature     = errors.New("unknown feature")
	ErrInvalidTier        = errors.New("invalid tier")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidFile        = errors.New("invalid file")
	ErrGeneratorDisabled  = errors.New("text generator not configured")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
