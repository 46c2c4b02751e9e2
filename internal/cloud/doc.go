// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the hosted text-generation providers Helpie talks to.
//
// Groq, Azure OpenAI and OpenRouter all speak the OpenAI chat-completions
// wire format, so one Client implements the binding and the per-provider
// constructors only differ in endpoint, auth header and model field.
//
// # Key Types
//
//   - Provider: the interface the gateway selects from
//   - Client: OpenAI-compatible chat-completions binding
//   - Error: a classified provider failure (FailureKind + message)
//
// # Usage
//
//	groq := cloud.NewGroqClient(apiKey, "")
//	text, err := groq.Complete(ctx, messages)
//	var perr *cloud.Error
//	if errors.As(err, &perr) && perr.Kind == cloud.ConfigurationMissing {
//	    // tell the operator which settings to add
//	}
//
// # Security
//
// API keys are never logged. Request logging records method and path only;
// response logging records status and duration only.
package cloud
