// Package apperr is the error taxonomy shared by the catalog, ledger and
// tenancy services and translated to status codes at the HTTP edge.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error.
type Kind int

const (
	// KindPersistence is the zero kind: anything not classified is treated
	// as a storage failure.
	KindPersistence Kind = iota
	// KindValidation means caller input violates a precondition.
	KindValidation
	// KindConflict means a uniqueness or reference rule blocked the write.
	KindConflict
	// KindNotFound means the referenced record does not exist.
	KindNotFound
	// KindForbidden means the caller's role does not allow the action.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "persistence"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure. A nil cause yields nil so adapters
// can write `return apperr.Persistence("insert item", err)` unconditionally.
func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Kind: KindPersistence, Message: op, Cause: cause}
}

// Wrap re-labels err with kind while keeping it in the chain.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// KindOf reports the kind of the outermost *Error in err's chain.
// Unclassified errors are persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsForbidden(err error) bool  { return is(err, KindForbidden) }

func is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
