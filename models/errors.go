package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeNetwork            = "NETWORK_ERROR"
	ErrCodeDriverLaunch       = "DRIVER_LAUNCH_FAILED"
	ErrCodeChallengeExhausted = "CHALLENGE_EXHAUSTED"
	ErrCodeInsufficient       = "INSUFFICIENT_CONTENT"
	ErrCodeTimeout            = "ACQUIRE_TIMEOUT"
	ErrCodeNavigation         = "NAVIGATION_FAILED"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error carried on Results and API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AcquireError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AcquireError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *AcquireError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// NewAcquireError creates a new AcquireError.
func NewAcquireError(code, message string, err error) *AcquireError {
	return &AcquireError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AcquireError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
