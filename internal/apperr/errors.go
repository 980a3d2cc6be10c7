// Package apperr defines the error kinds shared by the client packages.
//
// Callers match on kinds rather than message text:
//
//	if errors.Is(err, apperr.ErrSessionExpired) { ... }
//	switch apperr.KindOf(err) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthRequired
	KindSessionExpired
	KindInvalidToken
	KindAccessDenied
	KindNotFound
	KindNetwork
	KindValidation
	KindConflict
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindSessionExpired:
		return "session_expired"
	case KindInvalidToken:
		return "invalid_token"
	case KindAccessDenied:
		return "access_denied"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network_or_server"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	ErrAuthRequired   = &Error{Kind: KindAuthRequired, Message: "authentication required"}
	ErrSessionExpired = &Error{Kind: KindSessionExpired, Message: "session expired, please log in again"}
	ErrInvalidToken   = &Error{Kind: KindInvalidToken, Message: "invalid token, please log in again"}
	ErrAccessDenied   = &Error{Kind: KindAccessDenied, Message: "access denied: admins only"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrCancelled      = &Error{Kind: KindCancelled, Message: "cancelled by user"}
)

// Error carries a Kind plus the operation and, for HTTP failures, the
// status code and response body.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is regardless of Op or Message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// HTTP builds an error for a non-2xx response. 404 maps to KindNotFound,
// everything else to KindNetwork.
func HTTP(op string, status int, body string) *Error {
	kind := KindNetwork
	if status == 404 {
		kind = KindNotFound
	}
	if body == "" {
		body = "API request failed"
	}
	return &Error{Kind: kind, Op: op, Status: status, Message: body}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err means the caller has to log in again
func IsAuth(err error) bool {
	switch KindOf(err) {
	case KindAuthRequired, KindSessionExpired, KindInvalidToken:
		return true
	}
	return false
}

// Message returns a human readable message suitable for an `error` field
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
	}
	return err.Error()
}
