// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sync"
	"testing"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "assistant", "system"} {
		r, err := ParseRole(s)
		if err != nil {
			t.Errorf("ParseRole(%q) error: %v", s, err)
		}
		if r.String() != s {
			t.Errorf("ParseRole(%q) = %q", s, r)
		}
	}
	if _, err := ParseRole("tool"); err == nil {
		t.Error("ParseRole(tool) should fail")
	}
}

func TestRole_DisplayName(t *testing.T) {
	if got := RoleAssistant.DisplayName(); got != "Helpie" {
		t.Errorf("DisplayName = %q, want Helpie", got)
	}
	if got := Role("x").DisplayName(); got != "Unknown" {
		t.Errorf("DisplayName = %q, want Unknown", got)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendAndTurns(t *testing.T) {
	conv := NewConversation()
	if conv.ID == "" {
		t.Fatal("conversation ID should be generated")
	}

	conv.Append(NewUserTurn("hi"), NewAssistantTurn("hello", "<p>hello</p>"))
	if conv.Len() != 2 {
		t.Fatalf("Len = %d, want 2", conv.Len())
	}

	turns := conv.Turns()
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("roles = %s,%s", turns[0].Role, turns[1].Role)
	}
	if turns[0].Rendered != "" {
		t.Errorf("user turn should have no rendered form, got %q", turns[0].Rendered)
	}

	// Mutating the copy must not touch the history.
	turns[0].Raw = "changed"
	if conv.Turns()[0].Raw != "hi" {
		t.Error("Turns() should return a copy")
	}
}

func TestConversation_Window(t *testing.T) {
	conv := NewConversation()
	for i := 1; i <= 20; i++ {
		conv.Append(NewUserTurn(fmt.Sprintf("turn %d", i)))
	}

	win := conv.Window(15)
	if len(win) != 15 {
		t.Fatalf("len(Window(15)) = %d, want 15", len(win))
	}
	if win[0].Content != "turn 6" {
		t.Errorf("oldest = %q, want %q", win[0].Content, "turn 6")
	}
	if win[14].Content != "turn 20" {
		t.Errorf("newest = %q, want %q", win[14].Content, "turn 20")
	}

	if got := len(conv.Window(50)); got != 20 {
		t.Errorf("len(Window(50)) = %d, want 20", got)
	}
	if got := conv.Window(0); got != nil {
		t.Errorf("Window(0) = %v, want nil", got)
	}
}

func TestConversation_WindowUsesRawText(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewAssistantTurn("**Fix**", "<div class='md'><p><strong>Fix</strong></p></div>"))

	win := conv.Window(15)
	if win[0].Content != "**Fix**" {
		t.Errorf("context = %q, want raw text", win[0].Content)
	}
}

func TestConversation_Reset(t *testing.T) {
	conv := NewConversation()
	conv.Append(NewUserTurn("a"), NewUserTurn("b"))
	conv.Reset(NewAssistantTurn("greeting", "<p>greeting</p>"))

	if conv.Len() != 1 {
		t.Fatalf("Len after Reset = %d, want 1", conv.Len())
	}
	last, ok := conv.Last()
	if !ok || last.Raw != "greeting" {
		t.Errorf("Last = %+v, %v", last, ok)
	}

	conv.Reset()
	if _, ok := conv.Last(); ok {
		t.Error("Last on empty conversation should report false")
	}
}

func TestConversation_ConcurrentAppend(t *testing.T) {
	conv := NewConversation()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv.Lock()
			defer conv.Unlock()
			conv.Append(NewUserTurn(fmt.Sprint(i)), NewAssistantTurn("ok", "ok"))
		}(i)
	}
	wg.Wait()

	turns := conv.Turns()
	if len(turns) != 100 {
		t.Fatalf("Len = %d, want 100", len(turns))
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != RoleUser || turns[i+1].Role != RoleAssistant {
			t.Fatalf("turn pair %d interleaved: %s,%s", i/2, turns[i].Role, turns[i+1].Role)
		}
	}
}
