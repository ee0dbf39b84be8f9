package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is wrapped by a TransportError for 404 responses.
	ErrNotFound = errors.New("record not found")

	// ErrUnavailable is wrapped by a TransportError for 5xx responses.
	ErrUnavailable = errors.New("backend unavailable")
)

// TransportError reports a backend call that did not succeed: the store
// was unreachable, or answered with a non-success status. Status is 0 when
// no response was received.
type TransportError struct {
	Op     string
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// statusErr is a non-success answer from a reachable store.
type statusErr struct {
	code int
	base error
	msg  string
}

func (e *statusErr) Error() string {
	if e.msg == "" {
		return e.base.Error()
	}
	return e.base.Error() + ": " + e.msg
}

func (e *statusErr) Unwrap() error { return e.base }

func statusError(status int, msg string) error {
	var base error
	switch {
	case status == http.StatusNotFound:
		base = ErrNotFound
	case status >= 500:
		base = ErrUnavailable
	default:
		base = errors.New(strings.ToLower(http.StatusText(status)))
	}
	return &statusErr{code: status, base: base, msg: msg}
}

// IsNotFound reports whether err carries a 404 from the store.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
