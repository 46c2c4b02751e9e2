// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a provider call produced no text.
type FailureKind int

const (
	// ConfigurationMissing means required credentials or settings are absent.
	// No network call was made.
	ConfigurationMissing FailureKind = iota + 1
	// UpstreamHTTPError means the provider answered with a non-200 status.
	UpstreamHTTPError
	// UpstreamTransportError means the call failed in transit or the reply
	// could not be parsed.
	UpstreamTransportError
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case ConfigurationMissing:
		return "configuration_missing"
	case UpstreamHTTPError:
		return "upstream_http_error"
	case UpstreamTransportError:
		return "upstream_transport_error"
	default:
		return "unknown"
	}
}

// ErrNotConfigured matches any ConfigurationMissing failure via errors.Is.
var ErrNotConfigured = errors.New("provider not configured")

// Error is a classified provider failure. Message is the human-readable
// text shown to the user, e.g. "Groq error: 401 {...}".
type Error struct {
	Provider ProviderID
	Kind     FailureKind
	Status   int // HTTP status for UpstreamHTTPError
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrNotConfigured for configuration failures and any *Error
// of the same Kind.
func (e *Error) Is(target error) bool {
	if target == ErrNotConfigured {
		return e.Kind == ConfigurationMissing
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// AsError extracts a *Error from err. Unclassified errors are reported as
// UpstreamTransportError so callers always get a kind.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{Kind: UpstreamTransportError, Message: err.Error(), Err: err}
}

func newHTTPError(id ProviderID, name string, status int, body string) *Error {
	return &Error{
		Provider: id,
		Kind:     UpstreamHTTPError,
		Status:   status,
		Message:  fmt.Sprintf("%s error: %d %s", name, status, body),
	}
}

func newTransportError(id ProviderID, name string, err error) *Error {
	return &Error{
		Provider: id,
		Kind:     UpstreamTransportError,
		Message:  fmt.Sprintf("%s exception: %v", name, err),
		Err:      err,
	}
}
