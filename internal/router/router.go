// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/helpie/internal/cloud"
)

// Gateway holds the registered providers. It is safe for concurrent use
// once built.
type Gateway struct {
	providers map[cloud.ProviderID]cloud.Provider
	order     []cloud.ProviderID
}

// NewGateway registers providers. A later provider with the same id
// replaces an earlier one.
func NewGateway(providers ...cloud.Provider) *Gateway {
	g := &Gateway{providers: make(map[cloud.ProviderID]cloud.Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, seen := g.providers[p.ID()]; !seen {
			g.order = append(g.order, p.ID())
		}
		g.providers[p.ID()] = p
	}
	return g
}

// Provider returns a registered provider by id.
func (g *Gateway) Provider(id cloud.ProviderID) (cloud.Provider, bool) {
	p, ok := g.providers[id]
	return p, ok
}

// Providers returns the registered providers in registration order.
func (g *Gateway) Providers() []cloud.Provider {
	out := make([]cloud.Provider, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.providers[id])
	}
	return out
}

// Select applies the selection rule: the first configured provider in
// preference order, otherwise the last registered entry of the list. An
// empty preference means DefaultPreference. It returns false when none of
// the preferred ids is registered.
func (g *Gateway) Select(preference []cloud.ProviderID) (cloud.Provider, bool) {
	if len(preference) == 0 {
		preference = DefaultPreference
	}

	var fallback cloud.Provider
	for _, id := range preference {
		p, ok := g.providers[id]
		if !ok {
			continue
		}
		if p.Configured() {
			return p, true
		}
		fallback = p
	}
	return fallback, fallback != nil
}

// Generate sends req to the selected provider. Exactly one provider call
// is made.
func (g *Gateway) Generate(ctx context.Context, req Request, preference []cloud.ProviderID) Result {
	p, ok := g.Select(preference)
	if !ok {
		return Result{Failure: &cloud.Error{
			Kind:    cloud.ConfigurationMissing,
			Message: "No generation provider available for " + joinIDs(preference) + ".",
		}}
	}

	start := time.Now()
	text, err := p.Complete(ctx, req.Messages())
	if err != nil {
		failure := cloud.AsError(err)
		if failure.Provider == "" {
			failure.Provider = p.ID()
		}
		log.Printf("GENERATE_FAILED | provider=%s kind=%s duration=%v", p.ID(), failure.Kind, time.Since(start).Round(time.Millisecond))
		return Result{Provider: p.ID(), Failure: failure}
	}

	log.Printf("GENERATE_OK | provider=%s chars=%d duration=%v", p.ID(), len(text), time.Since(start).Round(time.Millisecond))
	return Result{Provider: p.ID(), Text: text}
}

func joinIDs(ids []cloud.ProviderID) string {
	if len(ids) == 0 {
		ids = DefaultPreference
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
