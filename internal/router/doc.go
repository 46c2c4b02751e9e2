// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router picks exactly one generation provider per request.
//
// Providers are tried in preference order (default: Groq, Azure OpenAI,
// OpenRouter). The first one whose settings are complete wins. When none
// is configured the last entry is chosen anyway, so its call fails fast
// with a ConfigurationMissing message that tells the operator what to set.
// A failed call is never retried on another provider.
//
// # Key Types
//
//   - Gateway: registry of providers plus the selection rule
//   - Request: system prompt, context window and the new user message
//   - Result: the chosen provider with either text or a *cloud.Error
//
// # Usage
//
//	gw := router.NewGateway(groq, azure, openrouter)
//	res := gw.Generate(ctx, router.Request{
//	    SystemPrompt: prompt,
//	    Context:      conv.Window(15),
//	    UserMessage:  msg,
//	}, nil)
//	if !res.OK() {
//	    return res.Failure
//	}
package router
