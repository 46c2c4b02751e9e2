// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log"
	"strings"

	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/router"
	"github.com/jeranaias/helpie/internal/session"
)

// Generator produces one reply per request. *router.Gateway implements it.
type Generator interface {
	Generate(ctx context.Context, req router.Request, preference []cloud.ProviderID) router.Result
}

// Orchestrator runs chat turns against a Generator.
type Orchestrator struct {
	gen        Generator
	prompt     string
	window     int
	preference []cloud.ProviderID
	greeting   session.Greeting
}

// NewOrchestrator creates an orchestrator with the default prompt, window
// and provider preference.
func NewOrchestrator(gen Generator) *Orchestrator {
	return &Orchestrator{
		gen:      gen,
		prompt:   HelpPrompt,
		window:   DefaultWindow,
		greeting: Greeting(),
	}
}

// WithSystemPrompt replaces the system prompt.
func (o *Orchestrator) WithSystemPrompt(prompt string) *Orchestrator {
	if prompt != "" {
		o.prompt = prompt
	}
	return o
}

// WithWindow sets how many stored turns are sent as context.
func (o *Orchestrator) WithWindow(n int) *Orchestrator {
	if n > 0 {
		o.window = n
	}
	return o
}

// WithPreference sets the provider order. Nil means the gateway default.
func (o *Orchestrator) WithPreference(pref []cloud.ProviderID) *Orchestrator {
	o.preference = pref
	return o
}

// HandleTurn runs one turn. On success the user and assistant turns are
// appended together and the rendered reply is returned. On failure the
// conversation is unchanged and the error is a *Error.
//
// Turns on the same conversation are serialized; the conversation lock is
// held across the provider call.
func (o *Orchestrator) HandleTurn(ctx context.Context, conv *model.Conversation, message string) (*markup.Document, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, &Error{Kind: EmptyInput, Message: ErrEmptyInput.Message}
	}

	conv.Lock()
	defer conv.Unlock()

	req := router.Request{
		SystemPrompt: o.prompt,
		Context:      conv.Window(o.window),
		UserMessage:  msg,
	}
	res := o.gen.Generate(ctx, req, o.preference)
	if !res.OK() {
		log.Printf("CHAT_TURN_FAILED | conversation=%s provider=%s kind=%s", shortID(conv.ID), res.Provider, res.Failure.Kind)
		return nil, upstreamError(res.Provider, res.Failure)
	}

	doc := markup.Render(res.Text)
	conv.Append(
		model.NewUserTurn(msg),
		model.NewAssistantTurn(res.Text, doc.HTML()),
	)
	log.Printf("CHAT_TURN | conversation=%s provider=%s turns=%d", shortID(conv.ID), res.Provider, conv.Len())
	return doc, nil
}

// Reset makes the conversation exactly one greeting turn.
func (o *Orchestrator) Reset(conv *model.Conversation) {
	conv.Lock()
	defer conv.Unlock()
	conv.Reset(o.greeting.Turn())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
