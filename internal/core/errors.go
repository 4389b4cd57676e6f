package core

import "errors"

// Error kinds. Operations return *Error values that match one of these
// through errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrStoreFailure    = errors.New("store failure")
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, msg string, cause error) error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func Unauthenticated(msg string) error { return newError(ErrUnauthenticated, msg, nil) }

func Forbidden(msg string) error { return newError(ErrForbidden, msg, nil) }

func NotFound(msg string) error { return newError(ErrNotFound, msg, nil) }

func Invalid(msg string) error { return newError(ErrInvalidInput, msg, nil) }

func Conflict(msg string) error { return newError(ErrConflict, msg, nil) }

// StoreFailure wraps an unexpected persistence error. The cause's text is
// kept in the message since callers surface it as-is.
func StoreFailure(op string, err error) error {
	return newError(ErrStoreFailure, op, err)
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrStoreFailure && e.Err != nil {
			return e.Error()
		}
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsKnown reports whether err carries one of the kinds above.
func IsKnown(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
