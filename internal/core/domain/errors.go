package domain

import "errors"

// Circulation error taxonomy. Callers wrap these with context using %w and
// test for them with errors.Is.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("conflict with current state")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

// Access errors raised by the HTTP layer
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Retryable reports whether re-reading state and retrying might succeed.
// Conflicts and exhausted capacity can clear up; validation and invalid
// transitions will fail again with the same input.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrCapacityExhausted)
}

// Code returns a stable machine-readable code for an error in the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrCapacityExhausted):
		return "capacity_exhausted"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal"
	}
}
