// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/helpie/internal/cloud"
)

var envKeys = []string{
	"GROQ_API_KEY", "GROQ_MODEL",
	"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_API_VERSION",
	"OPENROUTER_API_KEY", "OPENROUTER_MODEL",
	"OLLAMA_URL", "OLLAMA_MODEL",
	"MAX_TOKENS", "PORT",
	"HELPIE_PROVIDERS", "HELPIE_TICKETS_PATH", "HELPIE_TICKETS_BACKEND",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}

	prefs, err := cfg.Chat.Preference()
	if err != nil {
		t.Fatalf("Preference failed: %v", err)
	}
	want := []cloud.ProviderID{cloud.ProviderGroq, cloud.ProviderAzure, cloud.ProviderOpenRouter}
	if len(prefs) != len(want) {
		t.Fatalf("Preference = %v, want %v", prefs, want)
	}
	for i := range want {
		if prefs[i] != want[i] {
			t.Errorf("Preference[%d] = %q, want %q", i, prefs[i], want[i])
		}
	}

	if cfg.Chat.Window != 15 || cfg.Chat.MaxTokens != 512 || cfg.Server.Port != 5000 {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Chat, cfg.Server)
	}
	if cfg.Chat.Timeout() != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Chat.Timeout())
	}
	if cfg.Server.Addr() != ":5000" {
		t.Errorf("Addr = %q", cfg.Server.Addr())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://x.openai.azure.com")
	t.Setenv("OPENROUTER_MODEL", "some/model")
	t.Setenv("MAX_TOKENS", "256")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("HELPIE_PROVIDERS", " openrouter , ollama ,")
	t.Setenv("HELPIE_TICKETS_BACKEND", "sqlite")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Groq.APIKey != "gsk_test" {
		t.Errorf("Groq.APIKey = %q", cfg.Groq.APIKey)
	}
	if cfg.Azure.Endpoint != "https://x.openai.azure.com" {
		t.Errorf("Azure.Endpoint = %q", cfg.Azure.Endpoint)
	}
	if cfg.OpenRouter.Model != "some/model" {
		t.Errorf("OpenRouter.Model = %q", cfg.OpenRouter.Model)
	}
	if cfg.Chat.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d, want 256", cfg.Chat.MaxTokens)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("malformed PORT should be ignored, got %d", cfg.Server.Port)
	}
	if strings.Join(cfg.Chat.Providers, ",") != "openrouter,ollama" {
		t.Errorf("Providers = %v", cfg.Chat.Providers)
	}
	if cfg.Tickets.Backend != "sqlite" {
		t.Errorf("Tickets.Backend = %q", cfg.Tickets.Backend)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Chat.Providers = []string{"groq", "bard", "groq"}
	cfg.Chat.Window = 0
	cfg.Server.Port = 70000
	cfg.Ollama.URL = "not a url"
	cfg.Tickets.Backend = "postgres"

	err := cfg.Validate()
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Validate() = %v, want ValidateErrors", err)
	}

	fields := make(map[string]int)
	for _, e := range verrs {
		fields[e.Field]++
	}
	for _, f := range []string{"chat.window", "server.port", "ollama.url", "tickets.backend"} {
		if fields[f] == 0 {
			t.Errorf("missing error for %s in %v", f, verrs)
		}
	}
	if fields["chat.providers"] != 2 {
		t.Errorf("chat.providers errors = %d, want 2 (unknown + duplicate)", fields["chat.providers"])
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[chat]
providers = ["openrouter", "groq"]
window = 8

[groq]
api_key = "from-file"

[tickets]
backend = "sqlite"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Chat.Window != 8 || cfg.Groq.APIKey != "from-file" {
		t.Errorf("file values not applied: %+v %+v", cfg.Chat, cfg.Groq)
	}
	if cfg.Chat.MaxTokens != 512 || cfg.Groq.Model != cloud.DefaultGroqModel {
		t.Errorf("defaults not kept: %+v %+v", cfg.Chat, cfg.Groq)
	}
	if cfg.Tickets.Path != "data/tickets.db" {
		t.Errorf("sqlite default path = %q", cfg.Tickets.Path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	t.Setenv("GROQ_API_KEY", "from-env")
	cfg, err = LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Groq.APIKey != "from-env" {
		t.Errorf("env should override file, got %q", cfg.Groq.APIKey)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[chat\nwindow ="), 0600)
	if _, err := LoadFromPath(bad); err == nil {
		t.Error("expected decode error")
	}

	invalid := filepath.Join(dir, "invalid.toml")
	os.WriteFile(invalid, []byte("[server]\nport = -1\n"), 0600)
	if _, err := LoadFromPath(invalid); err == nil {
		t.Error("expected validation error")
	}
}

func TestReadFile_IgnoresEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[groq]\napi_key = \"from-file\"\n"), 0600)
	t.Setenv("GROQ_API_KEY", "from-env")

	cfg, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if cfg.Groq.APIKey != "from-file" {
		t.Errorf("ReadFile applied env override: %q", cfg.Groq.APIKey)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("defaults not kept: port %d", cfg.Server.Port)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Groq.APIKey = "gsk_roundtrip"
	cfg.Chat.Providers = []string{"azure", "groq"}
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Groq.APIKey != "gsk_roundtrip" || strings.Join(loaded.Chat.Providers, ",") != "azure,groq" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("chat.window", "20"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if cfg.Chat.Window != 20 {
		t.Errorf("Window = %d, want 20", cfg.Chat.Window)
	}

	if err := cfg.Set("chat.providers", "ollama, groq"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if strings.Join(cfg.Chat.Providers, ",") != "ollama,groq" {
		t.Errorf("Providers = %v", cfg.Chat.Providers)
	}

	if err := cfg.Set("chat.temperature", "0.7"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, err := cfg.Get("chat.temperature")
	if err != nil || v.(float64) != 0.7 {
		t.Errorf("Get(chat.temperature) = %v, %v", v, err)
	}

	if err := cfg.Set("server.port", "abc"); err == nil {
		t.Error("expected error for non-numeric port")
	}
	if _, err := cfg.Get("chat.nope"); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := cfg.Get("version.x"); err == nil {
		t.Error("expected error for descending into a scalar")
	}
}

func TestGetAllKeys(t *testing.T) {
	cfg := Default()
	keys := GetAllKeys()
	if len(keys) == 0 {
		t.Fatal("no keys")
	}
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) failed: %v", k, err)
		}
	}
}

func TestString_RedactsKeys(t *testing.T) {
	cfg := Default()
	cfg.Groq.APIKey = "gsk_supersecret"
	cfg.Azure.APIKey = "azsecret"

	s := cfg.String()
	if strings.Contains(s, "supersecret") || strings.Contains(s, "azsecret") {
		t.Errorf("String leaked a key:\n%s", s)
	}
	if cfg.Groq.APIKey != "gsk_supersecret" {
		t.Error("String mutated the original config")
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_MODEL", "already/set")
	os.Unsetenv("OLLAMA_MODEL")
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("OPENROUTER_MODEL=from/dotenv\nOLLAMA_MODEL=llama3\n"), 0600)

	LoadDotEnv(path)

	if got := os.Getenv("OPENROUTER_MODEL"); got != "already/set" {
		t.Errorf("OPENROUTER_MODEL = %q, want existing value", got)
	}
	if got := os.Getenv("OLLAMA_MODEL"); got != "llama3" {
		t.Errorf("OLLAMA_MODEL = %q, want llama3", got)
	}

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
