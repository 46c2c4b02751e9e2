// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive terminal chat with Helpie.
//
// Uses the same orchestrator as the web widget. Input goes through liner
// for line editing and history; replies are rendered with glamour when
// stdout is a terminal.
//
// Commands:
//
//	/reset      Start over from the greeting
//	/save       Save the conversation as a transcript
//	/history    Show the conversation so far
//	/help       Show commands
//	/quit       Exit (also: exit, quit, Ctrl+D)

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/config"
	"github.com/jeranaias/helpie/internal/markup"
	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/storage"
)

const chatPrompt = "you> "

func newChatCommand(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to Helpie in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			cs := newChatSession(orch, cmd.OutOrStdout())
			if ts, err := storage.NewTranscriptStore(); err == nil {
				cs.transcripts = ts
			}
			if !plain && IsStdoutTTY() {
				cs.renderer = newMarkdownRenderer()
			}
			return runChat(cmd.Context(), cs)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print replies as plain text")
	return cmd
}

// =============================================================================
// LINE INPUT
// =============================================================================

// lineInput wraps liner with a persistent history file.
type lineInput struct {
	line        *liner.State
	historyFile string
}

func newLineInput() *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &lineInput{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (in *lineInput) ReadInput(prompt string) (string, error) {
	input, err := in.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		in.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (in *lineInput) Close() {
	defer in.line.Close()

	if err := os.MkdirAll(filepath.Dir(in.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	in.line.WriteHistory(f)
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession is one terminal conversation.
type chatSession struct {
	orch        *chat.Orchestrator
	conv        *model.Conversation
	transcripts *storage.TranscriptStore
	renderer    *glamour.TermRenderer
	out         io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newChatSession(orch *chat.Orchestrator, out io.Writer) *chatSession {
	conv := model.NewConversation()
	orch.Reset(conv)
	return &chatSession{orch: orch, conv: conv, out: out}
}

func newMarkdownRenderer() *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(WrapWidth()),
	)
	if err != nil {
		return nil
	}
	return r
}

// display prints assistant text, through glamour when available.
func (cs *chatSession) display(raw string) {
	text := markup.Normalize(raw)
	if cs.renderer != nil {
		if rendered, err := cs.renderer.Render(text); err == nil {
			fmt.Fprint(cs.out, rendered)
			return
		}
	}
	fmt.Fprintf(cs.out, "\n%s\n\n", text)
}

func (cs *chatSession) printHelp() {
	fmt.Fprintln(cs.out, SectionStyle.Render("Commands"))
	for _, c := range [][2]string{
		{"/reset", "Start over from the greeting"},
		{"/save", "Save the conversation as a transcript"},
		{"/history", "Show the conversation so far"},
		{"/help", "Show this list"},
		{"/quit", "Exit"},
	} {
		fmt.Fprintf(cs.out, "  %s %s\n", RenderLabel(c[0], 12), DimStyle.Render(c[1]))
	}
}

// handleLine processes one line of input and reports whether the loop
// should continue.
func (cs *chatSession) handleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return true
	}

	switch strings.ToLower(input) {
	case "/quit", "/exit", "/q", "exit", "quit":
		return false
	case "/reset", "/clear":
		cs.orch.Reset(cs.conv)
		fmt.Fprintln(cs.out, SuccessStyle.Render("Conversation reset."))
		cs.display(chat.GreetingText)
		return true
	case "/save":
		cs.save()
		return true
	case "/history":
		cs.printHistory()
		return true
	case "/help", "/?":
		cs.printHelp()
		return true
	}

	if strings.HasPrefix(input, "/") {
		fmt.Fprintf(cs.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[Warn]"), input)
		return true
	}

	cs.ask(ctx, input)
	return true
}

// ask runs one turn. Ctrl+C during the request cancels only the turn.
func (cs *chatSession) ask(ctx context.Context, input string) {
	turnCtx, cancel := context.WithCancel(ctx)
	cs.mu.Lock()
	cs.cancel = cancel
	cs.mu.Unlock()
	defer func() {
		cs.mu.Lock()
		cs.cancel = nil
		cs.mu.Unlock()
		cancel()
	}()

	if _, err := cs.orch.HandleTurn(turnCtx, cs.conv, input); err != nil {
		var cerr *chat.Error
		if errors.As(err, &cerr) {
			fmt.Fprintf(cs.out, "%s %s\n", ErrorStyle.Render("[Error]"), cerr.Message)
		} else {
			fmt.Fprintf(cs.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		}
		return
	}
	if last, ok := cs.conv.Last(); ok {
		cs.display(last.Raw)
	}
}

// cancelTurn aborts the in-flight request, if any.
func (cs *chatSession) cancelTurn() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.cancel == nil {
		return false
	}
	cs.cancel()
	cs.cancel = nil
	return true
}

func (cs *chatSession) save() {
	if cs.transcripts == nil {
		fmt.Fprintf(cs.out, "%s transcript storage is unavailable\n", ErrorStyle.Render("[Error]"))
		return
	}
	id, err := cs.transcripts.Save(storage.NewTranscript(cs.conv))
	if err != nil {
		fmt.Fprintf(cs.out, "%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}
	fmt.Fprintf(cs.out, "%s saved transcript %s\n", SuccessStyle.Render("[OK]"), id)
}

func (cs *chatSession) printHistory() {
	for _, t := range cs.conv.Turns() {
		fmt.Fprintf(cs.out, "%s %s\n", LabelStyle.Width(10).Render(t.Role.DisplayName()+":"), t.Raw)
	}
}

// runChat is the REPL loop.
func runChat(ctx context.Context, cs *chatSession) error {
	in := newLineInput()
	defer in.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if cs.cancelTurn() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	fmt.Fprintln(cs.out, TitleStyle.Render("Helpie"))
	cs.display(chat.GreetingText)
	fmt.Fprintln(cs.out, DimStyle.Render("Type /help for commands, /quit to exit."))

	for {
		input, err := in.ReadInput(PromptStyle.Render(chatPrompt))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D, or a closed stdin
			fmt.Fprintln(cs.out)
			return nil
		}
		if !cs.handleLine(ctx, input) {
			return nil
		}
	}
}
