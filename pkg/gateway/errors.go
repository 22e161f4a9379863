package gateway

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks a request rejected before anything was sent
	// upstream. It maps to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream marks a failed exchange with the upstream, including
	// responses that could not be decoded. It maps to 502 Bad Gateway.
	ErrUpstream = errors.New("upstream failed")
)

// Error is returned by Resolve. It matches ErrValidation or ErrUpstream with
// errors.Is, as well as its underlying cause.
type Error struct {
	kind   error
	Reason string // human-readable, safe to show to the client
	Err    error  // cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.Err}
}

func validationErr(reason string, err error) error {
	return &Error{kind: ErrValidation, Reason: reason, Err: err}
}

func upstreamErr(reason string, err error) error {
	return &Error{kind: ErrUpstream, Reason: reason, Err: err}
}

// StatusCode returns the HTTP status for an error returned by Resolve.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
