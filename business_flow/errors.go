// Package businessflow contains the core scheduling, quota, and lifecycle logic
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrAccountAlreadyExists = errors.New("account already exists")

	// Allocation errors
	ErrQuotaExceeded             = errors.New("daily post quota exceeded")
	ErrSchedulingHorizonExceeded = errors.New("no capacity within the scheduling horizon")
	ErrConfigurationError        = errors.New("missing or invalid schedule configuration")
	ErrInvalidContentType        = errors.New("invalid content type")
	ErrInvalidScheduleType       = errors.New("invalid schedule type")
	ErrScheduleTimeNotPresent    = errors.New("schedule time is not present")
	ErrScheduleTimeInPast        = errors.New("schedule time is in the past")
	ErrMediaRequired             = errors.New("at least one media URL is required")

	// Post lifecycle errors
	ErrPostNotFound            = errors.New("post not found")
	ErrPostNotCancellable      = errors.New("post can no longer be cancelled")
	ErrPostNotResubmittable    = errors.New("only failed posts can be resubmitted")
	ErrReservationReleased     = errors.New("reservation already released")
	ErrCaptionTemplateNotFound = errors.New("caption template not found")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

// BusinessError wraps a sentinel error with a stable code and message
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// QuotaExceededError carries the next calendar day that still has capacity,
// so callers can offer it instead of silently rescheduling.
type QuotaExceededError struct {
	AccountID    uint
	Day          string
	SuggestedDay string
}

func (e *QuotaExceededError) Error() string {
	if e.SuggestedDay != "" {
		return fmt.Sprintf("quota exceeded for account %d on %s, next capacity on %s", e.AccountID, e.Day, e.SuggestedDay)
	}
	return fmt.Sprintf("quota exceeded for account %d on %s", e.AccountID, e.Day)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// SuggestedNextDay extracts the suggested day from a quota error, if any
func SuggestedNextDay(err error) string {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe.SuggestedDay
	}
	return ""
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsAccountInactive(err error) bool {
	return errors.Is(err, ErrAccountInactive)
}

func IsAccountAlreadyExists(err error) bool {
	return errors.Is(err, ErrAccountAlreadyExists)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

func IsSchedulingHorizonExceeded(err error) bool {
	return errors.Is(err, ErrSchedulingHorizonExceeded)
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfigurationError)
}

func IsInvalidContentType(err error) bool {
	return errors.Is(err, ErrInvalidContentType)
}

func IsInvalidScheduleType(err error) bool {
	return errors.Is(err, ErrInvalidScheduleType)
}

func IsScheduleTimeNotPresent(err error) bool {
	return errors.Is(err, ErrScheduleTimeNotPresent)
}

func IsScheduleTimeInPast(err error) bool {
	return errors.Is(err, ErrScheduleTimeInPast)
}

func IsMediaRequired(err error) bool {
	return errors.Is(err, ErrMediaRequired)
}

func IsPostNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

func IsPostNotCancellable(err error) bool {
	return errors.Is(err, ErrPostNotCancellable)
}

func IsPostNotResubmittable(err error) bool {
	return errors.Is(err, ErrPostNotResubmittable)
}

func IsCaptionTemplateNotFound(err error) bool {
	return errors.Is(err, ErrCaptionTemplateNotFound)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
