package services

import (
	"fmt"

	"github.com/pkg/errors"
)

// AccessDeniedError is returned when a session key does not own the plan it
// is operating on.
type AccessDeniedError struct {
	PlanToken string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("plan access denied: %s", e.PlanToken)
}

// IsAccessDeniedError reports whether err is an AccessDeniedError.
func IsAccessDeniedError(err error) bool {
	var t *AccessDeniedError
	return errors.As(err, &t)
}

// OutlineMissingError is returned when no generation context can be resolved
// for a pending day: neither the stored audit run nor the caller supplied a
// usable outline.
type OutlineMissingError struct {
	PlanToken string
	Day       int
}

func (e *OutlineMissingError) Error() string {
	if e.Day > 0 {
		return fmt.Sprintf("no outline available for plan %s day %d", e.PlanToken, e.Day)
	}
	return fmt.Sprintf("no outline available for plan %s", e.PlanToken)
}

// IsOutlineMissingError reports whether err is an OutlineMissingError.
func IsOutlineMissingError(err error) bool {
	var t *OutlineMissingError
	return errors.As(err, &t)
}
