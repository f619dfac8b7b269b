package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Domain errors raised by the engine. Controllers map these to 4xx responses;
// anything else is a 5xx. The engine never retries on its own - retries are
// the caller's responsibility and are safe because every state-changing
// operation is idempotent.
var (
	ErrAlreadyCompleted       = errors.New("already completed")
	ErrMaxAttemptsReached     = errors.New("maximum attempts reached")
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrWeekLocked             = errors.New("week is locked")
	ErrAccessDenied           = errors.New("access denied")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotEligible            = errors.New("time requirement not met")
	ErrNotEnrolled            = errors.New("not enrolled in this cohort")
)

// isDuplicateKey reports whether err is a unique-constraint violation. The
// postgres driver translates these to gorm.ErrDuplicatedKey; the sqlite
// driver used in tests only surfaces the raw constraint message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
