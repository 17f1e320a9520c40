package marketplace

import (
	"errors"
	"fmt"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// ErrorKind classifies a client failure.
type ErrorKind string

// Error kind constants.
const (
	// KindConfig: missing or invalid credentials. Not retryable; surfaced
	// before any network call.
	KindConfig ErrorKind = "config"
	// KindTransient: network failure or timeout. Retryable on a future
	// request, never retried automatically within one aggregation.
	KindTransient ErrorKind = "transient"
	// KindUpstream: non-2xx status or malformed payload from the
	// marketplace.
	KindUpstream ErrorKind = "upstream"
)

// Error is the tagged failure type returned by every marketplace client.
// It replaces sentinel-mixed-into-success signaling: a Search call either
// returns offers or an *Error, never both.
type Error struct {
	Kind   ErrorKind
	Source domain.Source
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Source, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Kind, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigError reports missing or invalid credentials.
func NewConfigError(source domain.Source, msg string) *Error {
	return &Error{Kind: KindConfig, Source: source, Msg: msg}
}

// NewTransientError wraps a network or timeout failure.
func NewTransientError(source domain.Source, msg string, err error) *Error {
	return &Error{Kind: KindTransient, Source: source, Msg: msg, Err: err}
}

// NewUpstreamError wraps a non-2xx or malformed-payload failure.
func NewUpstreamError(source domain.Source, msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Source: source, Msg: msg, Err: err}
}

// KindOf extracts the error kind, if err is (or wraps) a marketplace Error.
func KindOf(err error) (ErrorKind, bool) {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}
