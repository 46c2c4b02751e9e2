// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/config"
	"github.com/jeranaias/helpie/internal/router"
	"github.com/jeranaias/helpie/internal/storage"
)

// isolate points HOME at a temp dir and blanks provider environment
// variables so the host setup cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"GROQ_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_DEPLOYMENT",
		"OPENROUTER_API_KEY", "OLLAMA_URL", "OLLAMA_MODEL", "MAX_TOKENS", "PORT",
		"HELPIE_PROVIDERS", "HELPIE_TICKETS_PATH", "HELPIE_TICKETS_BACKEND",
	} {
		t.Setenv(k, "")
	}
	return home
}

// writeConfig writes a config file that keeps tickets inside the test dir.
func writeConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	ticketsPath := filepath.Join(dir, "tickets.json")
	if backend == "sqlite" {
		ticketsPath = filepath.Join(dir, "tickets.db")
	}
	path := filepath.Join(dir, "config.toml")
	content := "[tickets]\nbackend = \"" + backend + "\"\npath = \"" + filepath.ToSlash(ticketsPath) + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

// =============================================================================
// ROOT
// =============================================================================

func TestRootCommand(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)

	out, err = runCLI(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "helpie")

	_, err = runCLI(t, "", "nonexistent-command")
	assert.Error(t, err)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "chat", "render", "tickets", "transcripts", "config", "providers"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flag("port"))
}

func TestBadConfigFails(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 70000\n"), 0600))

	_, err := runCLI(t, "", "--config", path, "tickets", "list")
	assert.Error(t, err)
}

// =============================================================================
// TICKETS
// =============================================================================

func TestTicketsWorkflow(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			isolate(t)
			cfgPath := writeConfig(t, backend)

			out, err := runCLI(t, "", "--config", cfgPath, "tickets", "list")
			require.NoError(t, err)
			assert.Contains(t, out, "No tickets.")

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "add", "Sam", "VPN", "is", "down")
			require.NoError(t, err)
			assert.Contains(t, out, "created ticket")
			assert.Contains(t, out, "High")

			_, err = runCLI(t, "", "--config", cfgPath, "tickets", "add", "Ana", "printer jam")
			require.NoError(t, err)

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "list", "--json")
			require.NoError(t, err)
			var tickets []storage.Ticket
			require.NoError(t, json.Unmarshal([]byte(out), &tickets))
			require.Len(t, tickets, 2)
			assert.Equal(t, "VPN is down", tickets[0].Issue)
			assert.Equal(t, storage.PriorityMedium, tickets[1].Priority)
			id := tickets[0].ID

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "list", "--search", "PRINTER")
			require.NoError(t, err)
			assert.Contains(t, out, "Ana")
			assert.NotContains(t, out, "Sam")

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "update", id, "--assign", "Jamie Lee", "--priority", "low")
			require.NoError(t, err)
			assert.Contains(t, out, "updated ticket")

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "show", id)
			require.NoError(t, err)
			assert.Contains(t, out, "Jamie Lee")
			assert.Contains(t, out, "Low")
			assert.Contains(t, out, "VPN is down")

			_, err = runCLI(t, "", "--config", cfgPath, "tickets", "close", id)
			require.NoError(t, err)

			out, err = runCLI(t, "", "--config", cfgPath, "tickets", "stats", "--json")
			require.NoError(t, err)
			var st storage.Stats
			require.NoError(t, json.Unmarshal([]byte(out), &st))
			assert.Equal(t, storage.Stats{Total: 2, Open: 1, Closed: 1, Medium: 1, Low: 1}, st)
		})
	}
}

func TestTickets_Errors(t *testing.T) {
	isolate(t)
	cfgPath := writeConfig(t, "json")

	_, err := runCLI(t, "", "--config", cfgPath, "tickets", "close", "nope")
	assert.ErrorIs(t, err, storage.ErrTicketNotFound)

	_, err = runCLI(t, "", "--config", cfgPath, "tickets", "show", "nope")
	assert.ErrorIs(t, err, storage.ErrTicketNotFound)

	_, err = runCLI(t, "", "--config", cfgPath, "tickets", "add", "only-name")
	assert.Error(t, err)

	_, err = runCLI(t, "", "--config", cfgPath, "tickets", "add", "Sam", "mouse broken")
	require.NoError(t, err)
	out, err := runCLI(t, "", "--config", cfgPath, "tickets", "list", "--json")
	require.NoError(t, err)
	var tickets []storage.Ticket
	require.NoError(t, json.Unmarshal([]byte(out), &tickets))
	require.Len(t, tickets, 1)

	_, err = runCLI(t, "", "--config", cfgPath, "tickets", "update", tickets[0].ID, "--priority", "urgent")
	assert.ErrorIs(t, err, storage.ErrInvalidTicket)
}

func TestPrintTicketTable_AlignsWideNames(t *testing.T) {
	var out bytes.Buffer
	printTicketTable(&out, []storage.Ticket{
		{ID: "aaaa1111", Name: "山田太郎", Status: storage.StatusOpen, Priority: storage.PriorityHigh, Assigned: "Unassigned", Issue: "VPN down"},
		{ID: "bbbb2222", Name: "Sam", Status: storage.StatusOpen, Priority: storage.PriorityLow, Assigned: "Unassigned", Issue: "mouse"},
	})
	text := out.String()
	assert.Contains(t, text, "山田太郎")
	assert.Contains(t, text, "2 ticket(s)")
}

// =============================================================================
// RENDER
// =============================================================================

func TestRenderCommand(t *testing.T) {
	isolate(t)

	out, err := runCLI(t, "<think>plan</think>Steps: 1. Restart 2. Check cable", "render")
	require.NoError(t, err)
	assert.Contains(t, out, "<ol>\n<li>Restart</li>\n<li>Check cable</li>\n</ol>")
	assert.NotContains(t, out, "think")

	out, err = runCLI(t, "<b>x</b>", "render", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")

	file := filepath.Join(t.TempDir(), "reply.md")
	require.NoError(t, os.WriteFile(file, []byte("Try this: 1. Reboot 2. Retry"), 0600))
	out, err = runCLI(t, "", "render", "--markdown", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Reboot")
	assert.NotContains(t, out, "<ol>")

	_, err = runCLI(t, "", "render", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigCommands(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "helpie", "config.toml")

	out, err := runCLI(t, "", "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	_, err = runCLI(t, "", "--config", path, "config", "init")
	require.NoError(t, err)
	_, err = runCLI(t, "", "--config", path, "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")
	_, err = runCLI(t, "", "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	_, err = runCLI(t, "", "--config", path, "config", "set", "chat.providers", "ollama,groq")
	require.NoError(t, err)
	out, err = runCLI(t, "", "--config", path, "config", "get", "chat.providers")
	require.NoError(t, err)
	assert.Equal(t, "ollama,groq\n", out)

	_, err = runCLI(t, "", "--config", path, "config", "set", "server.port", "99999")
	assert.Error(t, err)
	_, err = runCLI(t, "", "--config", path, "config", "set", "no.such.key", "1")
	assert.Error(t, err)

	t.Setenv("GROQ_API_KEY", "gsk_secret_value_1234")
	_, err = runCLI(t, "", "--config", path, "config", "set", "server.port", "8080")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "gsk_secret_value_1234", "env secrets must not be written to the file")

	out, err = runCLI(t, "", "--config", path, "config", "show", "--json")
	require.NoError(t, err)
	assert.NotContains(t, out, "gsk_secret_value_1234")
	assert.Contains(t, out, "8080")

	out, err = runCLI(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[server]")
	assert.NotContains(t, out, "gsk_secret_value_1234")

	out, err = runCLI(t, "", "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "tickets.backend")
}

// =============================================================================
// PROVIDERS
// =============================================================================

func TestProvidersCommand(t *testing.T) {
	isolate(t)
	cfgPath := writeConfig(t, "json")

	out, err := runCLI(t, "", "--config", cfgPath, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "Groq")
	assert.Contains(t, out, "fallback #1")
	assert.Contains(t, out, "not in chat.providers")
	assert.Contains(t, out, "no provider in chat.providers is configured")

	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	out, err = runCLI(t, "", "--config", cfgPath, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "Replies come from OpenRouter")
}

func TestBuildOrchestrator_InvalidPreference(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.Providers = []string{"bogus"}
	_, _, err := buildOrchestrator(cfg)
	assert.Error(t, err)
}

func TestBuildProviders_RegistersAll(t *testing.T) {
	cfg := config.Default()
	cfg.Ollama.Model = "llama3.2"
	ids := []cloud.ProviderID{}
	for _, p := range buildProviders(cfg) {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []cloud.ProviderID{cloud.ProviderGroq, cloud.ProviderAzure, cloud.ProviderOpenRouter, cloud.ProviderOllama}, ids)
	assert.True(t, newOllamaClient(cfg).Configured())
}

// =============================================================================
// CHAT SESSION
// =============================================================================

type stubGenerator struct {
	mu     sync.Mutex
	result router.Result
	calls  int
}

func (g *stubGenerator) Generate(ctx context.Context, req router.Request, pref []cloud.ProviderID) router.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.result
}

func newTestChat(t *testing.T, result router.Result) (*chatSession, *bytes.Buffer, *stubGenerator) {
	t.Helper()
	gen := &stubGenerator{result: result}
	var out bytes.Buffer
	cs := newChatSession(chat.NewOrchestrator(gen), &out)
	ts, err := storage.NewTranscriptStoreWithDir(t.TempDir())
	require.NoError(t, err)
	cs.transcripts = ts
	return cs, &out, gen
}

func TestChatSession_Turn(t *testing.T) {
	cs, out, gen := newTestChat(t, router.Result{Provider: cloud.ProviderGroq, Text: "Let's fix it. 1. Restart 2. Retry"})

	require.Equal(t, 1, cs.conv.Len(), "new session starts with the greeting")
	assert.True(t, cs.handleLine(context.Background(), "wifi broken"))
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 3, cs.conv.Len())
	assert.Contains(t, out.String(), "\n1. Restart")
	assert.Contains(t, out.String(), "\n2. Retry")

	out.Reset()
	assert.True(t, cs.handleLine(context.Background(), "   "))
	assert.Equal(t, 1, gen.calls, "blank input is ignored")
}

func TestChatSession_Commands(t *testing.T) {
	cs, out, gen := newTestChat(t, router.Result{Provider: cloud.ProviderGroq, Text: "ok"})
	ctx := context.Background()

	cs.handleLine(ctx, "printer offline")
	require.Equal(t, 3, cs.conv.Len())

	assert.True(t, cs.handleLine(ctx, "/history"))
	assert.Contains(t, out.String(), "printer offline")

	out.Reset()
	assert.True(t, cs.handleLine(ctx, "/save"))
	assert.Contains(t, out.String(), "saved transcript")
	metas, err := cs.transcripts.List()
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "printer offline", metas[0].Summary)

	out.Reset()
	assert.True(t, cs.handleLine(ctx, "/reset"))
	assert.Equal(t, 1, cs.conv.Len())
	assert.Contains(t, out.String(), "Conversation reset.")

	out.Reset()
	assert.True(t, cs.handleLine(ctx, "/bogus"))
	assert.Contains(t, out.String(), "unknown command")

	assert.True(t, cs.handleLine(ctx, "/help"))
	for _, quit := range []string{"/quit", "exit", "QUIT"} {
		assert.False(t, cs.handleLine(ctx, quit), quit)
	}
	assert.Equal(t, 1, gen.calls)
}

func TestChatSession_UpstreamError(t *testing.T) {
	cs, out, _ := newTestChat(t, router.Result{
		Provider: cloud.ProviderGroq,
		Failure:  &cloud.Error{Provider: cloud.ProviderGroq, Kind: cloud.UpstreamHTTPError, Status: 500, Message: "Groq error 500: boom"},
	})

	assert.True(t, cs.handleLine(context.Background(), "vpn down"))
	assert.Contains(t, out.String(), "[Error]")
	assert.Contains(t, out.String(), "Groq error 500")
	assert.Equal(t, 1, cs.conv.Len(), "failed turn leaves the conversation unchanged")
	assert.False(t, cs.cancelTurn(), "no turn in flight after return")
}

func TestChatSession_SaveWithoutStore(t *testing.T) {
	cs, out, _ := newTestChat(t, router.Result{Text: "ok"})
	cs.transcripts = nil
	cs.handleLine(context.Background(), "/save")
	assert.Contains(t, out.String(), "unavailable")
}

func TestTranscriptsCommands(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	out, err := runCLI(t, "", "transcripts", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved transcripts.")

	cs, _, _ := newTestChat(t, router.Result{Provider: cloud.ProviderGroq, Text: "1. Reboot 2. Retry"})
	ts, err := storage.NewTranscriptStoreWithDir(dir)
	require.NoError(t, err)
	cs.transcripts = ts
	cs.handleLine(context.Background(), "laptop will not boot")
	cs.handleLine(context.Background(), "/save")

	out, err = runCLI(t, "", "transcripts", "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "laptop will not boot")
	assert.Contains(t, out, "3 turns")

	id := cs.conv.ID
	out, err = runCLI(t, "", "transcripts", "show", id, "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "1. Reboot 2. Retry")

	outDir := t.TempDir()
	out, err = runCLI(t, "", "transcripts", "export", id, "--dir", dir, "--format", "html", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported to")
	files, err := filepath.Glob(filepath.Join(outDir, "helpie_*.html"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = runCLI(t, "", "transcripts", "export", id, "--dir", dir, "--format", "pdf", "--out", outDir)
	assert.Error(t, err)

	_, err = runCLI(t, "", "transcripts", "delete", id, "--dir", dir)
	require.NoError(t, err)
	_, err = runCLI(t, "", "transcripts", "show", id, "--dir", dir)
	assert.ErrorIs(t, err, storage.ErrTranscriptNotFound)
}

// =============================================================================
// TERMINAL AND STYLES
// =============================================================================

func TestDetectColors(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}
	tty := func() bool { return true }
	pipe := func() bool { return false }

	assert.False(t, detectColors(env(map[string]string{"NO_COLOR": "1", "FORCE_COLOR": "1"}), tty))
	assert.True(t, detectColors(env(map[string]string{"FORCE_COLOR": "1"}), pipe))
	assert.True(t, detectColors(env(nil), tty))
	assert.False(t, detectColors(env(nil), pipe))
}

func TestRenderHelpers(t *testing.T) {
	assert.Contains(t, RenderStatus("configured"), "[OK]")
	assert.Contains(t, RenderStatus("unreachable"), "[FAIL]")
	assert.Contains(t, RenderStatus("missing"), "[WARN]")
	assert.Contains(t, RenderStatus("other"), "[OTHER]")
	assert.Contains(t, RenderPriority("High"), "High")
	assert.Equal(t, "Urgent", RenderPriority("Urgent"))
	assert.Contains(t, RenderSeparator(5), "=====")
	assert.GreaterOrEqual(t, WrapWidth(), MinTerminalWidth-2)
	assert.LessOrEqual(t, WrapWidth(), MaxWrapWidth)
}
