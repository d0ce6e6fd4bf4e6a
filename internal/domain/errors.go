package domain

import "errors"

// Domain errors
var (
	ErrMissingCategory      = errors.New("required document category missing")
	ErrGeneratorUnavailable = errors.New("generation service not configured")
	ErrRateLimited          = errors.New("generation service rate limit exceeded")
	ErrSessionNotFound      = errors.New("session not found")
	ErrReportNotReady       = errors.New("report not generated yet")
	ErrInvalidFile          = errors.New("invalid file")
	ErrInvalidToken         = errors.New("invalid token")
	ErrAccessDenied         = errors.New("access denied")
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
