// Package errs provides the error types the node handlers use to respond
// to failed requests, and the mapping of ledger errors to HTTP statuses.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (t *Trusted) Error() string {
	return t.Err.Error()
}

// Unwrap provides access to the wrapped error.
func (t *Trusted) Unwrap() error {
	return t.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var t *Trusted
	return errors.As(err, &t)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var t *Trusted
	if !errors.As(err, &t) {
		return nil
	}
	return t
}

// =============================================================================

// FromLedger translates the expected errors of the ledger into trusted
// errors. Any other error is returned as is and reported as a 500.
func FromLedger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, state.ErrRole):
		return NewTrusted(err, http.StatusForbidden)
	case database.IsLinkageError(err):
		return NewTrusted(err, http.StatusNotAcceptable)
	case errors.Is(err, database.ErrChainNotInitialized):
		return NewTrusted(err, http.StatusServiceUnavailable)
	case errors.Is(err, state.ErrInvalidTransaction), errors.Is(err, database.ErrUnsupportedVersion):
		return NewTrusted(err, http.StatusBadRequest)
	}
	return err
}
