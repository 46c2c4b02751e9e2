// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/helpie/internal/cloud"

// ErrorKind classifies a failed turn.
type ErrorKind int

const (
	// EmptyInput means the message was empty after trimming.
	EmptyInput ErrorKind = iota + 1
	// UpstreamFailure means the provider produced no reply. Error.Cause
	// holds the provider failure kind.
	UpstreamFailure
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case EmptyInput:
		return "empty_input"
	case UpstreamFailure:
		return "upstream_failure"
	default:
		return "unknown"
	}
}

// ErrEmptyInput is returned for blank messages.
var ErrEmptyInput = &Error{Kind: EmptyInput, Message: "Empty message."}

// Error is a failed turn. Message is user-facing text.
type Error struct {
	Kind     ErrorKind
	Cause    cloud.FailureKind
	Provider cloud.ProviderID
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the provider failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrEmptyInput)
// works for every empty-input failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func upstreamError(provider cloud.ProviderID, failure *cloud.Error) *Error {
	return &Error{
		Kind:     UpstreamFailure,
		Cause:    failure.Kind,
		Provider: provider,
		Message:  failure.Message,
		Err:      failure,
	}
}
