package routing

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid request")
	// ErrConflict is returned when a row lock could not be taken in time.
	// The whole action may be retried.
	ErrConflict = errors.New("concurrent update")
	ErrGuard    = errors.New("action not permitted")
)

// GuardError carries the reason an action's precondition failed.
type GuardError struct {
	Reason string
}

func (e *GuardError) Error() string {
	return e.Reason
}

func (e *GuardError) Is(target error) bool {
	return target == ErrGuard
}

func violation(reason string) error {
	return &GuardError{Reason: reason}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
