// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for helpie.
//
// Supports TOML and JSON configuration files, with defaults, a .env file,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - ChatConfig: provider preference, history window, generation limits
//   - GroqConfig, AzureConfig, OpenRouterConfig, OllamaConfig: provider settings
//   - ServerConfig, TicketsConfig: HTTP server and ticket storage
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GROQ_API_KEY, PORT, ...)
//   - .env in the working directory (never overrides the real environment)
//   - ~/.helpie/config.toml, or the file passed with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prefs, _ := cfg.Chat.Preference()
package config
