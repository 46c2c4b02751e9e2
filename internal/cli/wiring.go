// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/config"
	"github.com/jeranaias/helpie/internal/ollama"
	"github.com/jeranaias/helpie/internal/router"
	"github.com/jeranaias/helpie/internal/session"
	"github.com/jeranaias/helpie/internal/storage"
)

// buildProviders creates every provider client from cfg. Unconfigured
// providers are still registered so /health and `helpie providers` can
// report them; the gateway skips them.
func buildProviders(cfg *config.Config) []cloud.Provider {
	tune := func(c *cloud.Client) *cloud.Client {
		return c.WithTimeout(cfg.Chat.Timeout()).
			WithMaxTokens(cfg.Chat.MaxTokens).
			WithTemperature(cfg.Chat.Temperature)
	}

	return []cloud.Provider{
		tune(cloud.NewGroqClient(cfg.Groq.APIKey, cfg.Groq.Model)),
		tune(cloud.NewAzureClient(cfg.Azure.AzureSettings())),
		tune(cloud.NewOpenRouterClient(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model)),
		newOllamaClient(cfg),
	}
}

func newOllamaClient(cfg *config.Config) *ollama.Client {
	oc := ollama.DefaultConfig()
	oc.BaseURL = cfg.Ollama.URL
	oc.DefaultModel = cfg.Ollama.Model
	oc.Timeout = cfg.Chat.Timeout()
	oc.MaxTokens = cfg.Chat.MaxTokens
	oc.Temperature = cfg.Chat.Temperature
	return ollama.NewClientWithConfig(oc)
}

// buildOrchestrator wires the gateway and orchestrator from cfg.
func buildOrchestrator(cfg *config.Config) (*chat.Orchestrator, *router.Gateway, error) {
	pref, err := cfg.Chat.Preference()
	if err != nil {
		return nil, nil, fmt.Errorf("chat.providers: %w", err)
	}
	gw := router.NewGateway(buildProviders(cfg)...)
	orch := chat.NewOrchestrator(gw).
		WithWindow(cfg.Chat.Window).
		WithPreference(pref)
	return orch, gw, nil
}

// openTickets opens the configured ticket backend.
func openTickets(cfg *config.Config) (storage.TicketStore, error) {
	backend, err := storage.ParseBackend(cfg.Tickets.Backend)
	if err != nil {
		return nil, err
	}
	return storage.OpenTicketStore(backend, cfg.Tickets.Path)
}

func sessionConfig(cfg *config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.IdleTimeout = cfg.Server.SessionIdle()
	sc.MaxSessions = cfg.Server.MaxSessions
	return sc
}
