package service

import "errors"

// Kind classifies a failure the caller can act on.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Error is a failure caused by the request rather than by the store. Its
// message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func invalid(msg string) error      { return &Error{Kind: KindInvalid, Message: msg} }
func unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }

// AsError unwraps err into a service Error when it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
