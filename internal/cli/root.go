// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/config"
)

// Build metadata, set with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// loadConfig reads --config when given, otherwise ~/.helpie/config.toml.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromPath(o.configPath)
	}
	return config.Load()
}

// NewRootCommand builds the helpie command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "helpie",
		Short: "IT helpdesk tickets and a troubleshooting assistant",
		Long: `helpie runs a small IT helpdesk: a ticket tracker and "Helpie", a chat
assistant that walks users through common troubleshooting steps.

Quick Start:
  helpie serve                     # Start the HTTP server on :5000
  helpie chat                      # Talk to Helpie in the terminal
  helpie tickets add "Sam" "VPN down"
  helpie providers                 # Show which AI providers are configured`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.helpie/config.toml)")

	root.AddCommand(
		newServeCommand(opts),
		newChatCommand(opts),
		newRenderCommand(),
		newTicketsCommand(opts),
		newTranscriptsCommand(),
		newConfigCommand(opts),
		newProvidersCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
