// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/model"
)

// DefaultPreference is the provider order used when none is configured.
var DefaultPreference = []cloud.ProviderID{
	cloud.ProviderGroq,
	cloud.ProviderAzure,
	cloud.ProviderOpenRouter,
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is built fresh for every call and never stored.
type Request struct {
	SystemPrompt string
	Context      []model.Message
	UserMessage  string
}

// Messages flattens the request into [system, context..., user].
func (r Request) Messages() []model.Message {
	msgs := make([]model.Message, 0, len(r.Context)+2)
	msgs = append(msgs, model.NewMessage(model.RoleSystem, r.SystemPrompt))
	msgs = append(msgs, r.Context...)
	msgs = append(msgs, model.NewMessage(model.RoleUser, r.UserMessage))
	return msgs
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one Generate call: Text on success, Failure
// otherwise. Provider is empty only when no provider could be selected.
type Result struct {
	Provider cloud.ProviderID
	Text     string
	Failure  *cloud.Error
}

// OK reports whether the call produced text.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
