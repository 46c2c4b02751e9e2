// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"errors"
	"testing"

	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/model"
)

// fakeProvider records calls and returns a canned reply or error.
type fakeProvider struct {
	id         cloud.ProviderID
	configured bool
	reply      string
	err        error

	calls    int
	lastMsgs []model.Message
}

func (f *fakeProvider) ID() cloud.ProviderID { return f.id }
func (f *fakeProvider) Name() string         { return string(f.id) }
func (f *fakeProvider) Configured() bool     { return f.configured }

func (f *fakeProvider) Complete(ctx context.Context, msgs []model.Message) (string, error) {
	f.calls++
	f.lastMsgs = msgs
	if !f.configured {
		return "", &cloud.Error{Provider: f.id, Kind: cloud.ConfigurationMissing, Message: string(f.id) + " missing"}
	}
	return f.reply, f.err
}

// ============================================================================
// SELECTION TESTS
// ============================================================================

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		configured map[cloud.ProviderID]bool
		want       cloud.ProviderID
	}{
		{"primary configured", map[cloud.ProviderID]bool{cloud.ProviderGroq: true, cloud.ProviderAzure: true, cloud.ProviderOpenRouter: true}, cloud.ProviderGroq},
		{"secondary only", map[cloud.ProviderID]bool{cloud.ProviderAzure: true}, cloud.ProviderAzure},
		{"tertiary only", map[cloud.ProviderID]bool{cloud.ProviderOpenRouter: true}, cloud.ProviderOpenRouter},
		{"none configured falls back to last", map[cloud.ProviderID]bool{}, cloud.ProviderOpenRouter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := NewGateway(
				&fakeProvider{id: cloud.ProviderGroq, configured: tc.configured[cloud.ProviderGroq]},
				&fakeProvider{id: cloud.ProviderAzure, configured: tc.configured[cloud.ProviderAzure]},
				&fakeProvider{id: cloud.ProviderOpenRouter, configured: tc.configured[cloud.ProviderOpenRouter]},
			)
			p, ok := gw.Select(nil)
			if !ok {
				t.Fatal("Select returned no provider")
			}
			if p.ID() != tc.want {
				t.Errorf("Select = %s, want %s", p.ID(), tc.want)
			}
		})
	}
}

func TestSelect_CustomPreference(t *testing.T) {
	gw := NewGateway(
		&fakeProvider{id: cloud.ProviderGroq, configured: true},
		&fakeProvider{id: cloud.ProviderOllama, configured: true},
	)
	p, _ := gw.Select([]cloud.ProviderID{cloud.ProviderOllama, cloud.ProviderGroq})
	if p.ID() != cloud.ProviderOllama {
		t.Errorf("Select = %s, want ollama", p.ID())
	}

	if _, ok := gw.Select([]cloud.ProviderID{cloud.ProviderAzure}); ok {
		t.Error("Select with only unregistered ids should report false")
	}
}

// ============================================================================
// GENERATE TESTS
// ============================================================================

func TestGenerate_Success(t *testing.T) {
	groq := &fakeProvider{id: cloud.ProviderGroq, configured: true, reply: "1. Reboot"}
	openrouter := &fakeProvider{id: cloud.ProviderOpenRouter, configured: true}
	gw := NewGateway(groq, openrouter)

	res := gw.Generate(context.Background(), Request{
		SystemPrompt: "sys",
		Context:      []model.Message{model.NewMessage(model.RoleAssistant, "hi")},
		UserMessage:  "printer jam",
	}, nil)

	if !res.OK() || res.Text != "1. Reboot" || res.Provider != cloud.ProviderGroq {
		t.Fatalf("res = %+v", res)
	}
	if openrouter.calls != 0 {
		t.Errorf("fallback provider called %d times", openrouter.calls)
	}

	msgs := groq.lastMsgs
	if len(msgs) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(msgs))
	}
	if msgs[0].Role != model.RoleSystem || msgs[0].Content != "sys" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[2].Role != model.RoleUser || msgs[2].Content != "printer jam" {
		t.Errorf("last message = %+v", msgs[2])
	}
}

func TestGenerate_NoCrossProviderRetry(t *testing.T) {
	groq := &fakeProvider{id: cloud.ProviderGroq, configured: true, err: &cloud.Error{Kind: cloud.UpstreamHTTPError, Message: "Groq error: 500 boom"}}
	azure := &fakeProvider{id: cloud.ProviderAzure, configured: true, reply: "ok"}
	gw := NewGateway(groq, azure)

	res := gw.Generate(context.Background(), Request{UserMessage: "x"}, nil)
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.Kind != cloud.UpstreamHTTPError {
		t.Errorf("Kind = %v", res.Failure.Kind)
	}
	if azure.calls != 0 {
		t.Errorf("secondary provider called %d times after primary failure", azure.calls)
	}
}

func TestGenerate_NothingConfigured(t *testing.T) {
	gw := NewGateway(
		&fakeProvider{id: cloud.ProviderGroq},
		&fakeProvider{id: cloud.ProviderOpenRouter},
	)
	res := gw.Generate(context.Background(), Request{UserMessage: "x"}, nil)

	if res.Provider != cloud.ProviderOpenRouter {
		t.Errorf("Provider = %s, want openrouter", res.Provider)
	}
	if !errors.Is(res.Err(), cloud.ErrNotConfigured) {
		t.Errorf("Err = %v, want ErrNotConfigured", res.Err())
	}
}

func TestGenerate_UnclassifiedError(t *testing.T) {
	gw := NewGateway(&fakeProvider{id: cloud.ProviderGroq, configured: true, err: errors.New("dial tcp: refused")})
	res := gw.Generate(context.Background(), Request{}, nil)

	if res.Failure == nil || res.Failure.Kind != cloud.UpstreamTransportError {
		t.Fatalf("Failure = %+v", res.Failure)
	}
	if res.Failure.Provider != cloud.ProviderGroq {
		t.Errorf("Failure.Provider = %q, want groq", res.Failure.Provider)
	}
}

func TestGenerate_EmptyGateway(t *testing.T) {
	res := NewGateway().Generate(context.Background(), Request{}, nil)
	if res.OK() || res.Provider != "" {
		t.Fatalf("res = %+v", res)
	}
	if res.Failure.Message != "No generation provider available for groq,azure,openrouter." {
		t.Errorf("Message = %q", res.Failure.Message)
	}
}

func TestNewGateway_ReplacesDuplicate(t *testing.T) {
	first := &fakeProvider{id: cloud.ProviderGroq, reply: "a", configured: true}
	second := &fakeProvider{id: cloud.ProviderGroq, reply: "b", configured: true}
	gw := NewGateway(first, nil, second)

	if got := len(gw.Providers()); got != 1 {
		t.Fatalf("len(Providers) = %d, want 1", got)
	}
	if p, _ := gw.Provider(cloud.ProviderGroq); p != second {
		t.Error("later registration should replace earlier one")
	}
}
