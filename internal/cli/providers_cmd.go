// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/config"
	"github.com/jeranaias/helpie/internal/ollama"
	"github.com/jeranaias/helpie/internal/router"
)

const ollamaProbeTimeout = 3 * time.Second

func newProvidersCommand(opts *rootOptions) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show which AI providers are configured and their fallback order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			printProviders(cmd.OutOrStdout(), cfg)
			if probe {
				probeOllama(cmd.Context(), cmd.OutOrStdout(), newOllamaClient(cfg))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Check that the Ollama server answers and list its models")
	return cmd
}

func printProviders(out io.Writer, cfg *config.Config) {
	pref, _ := cfg.Chat.Preference()
	fmt.Fprintln(out, TitleStyle.Render("Providers"))

	gw := router.NewGateway(buildProviders(cfg)...)
	for _, p := range gw.Providers() {
		status := "missing"
		if p.Configured() {
			status = "configured"
		}
		order := DimStyle.Render("not in chat.providers")
		if i := slices.Index(pref, p.ID()); i >= 0 {
			order = fmt.Sprintf("fallback #%d", i+1)
		}
		fmt.Fprintf(out, "%s %s %s\n", RenderStatus(status), RenderLabel(p.Name(), 18), order)
	}

	if p, ok := gw.Select(pref); ok && p.Configured() {
		fmt.Fprintf(out, "\nReplies come from %s.\n", SuccessStyle.Render(p.Name()))
	} else {
		fmt.Fprintf(out, "\n%s no provider in chat.providers is configured; chat will answer with a setup message.\n",
			WarningStyle.Render("[Warn]"))
	}
}

func probeOllama(ctx context.Context, out io.Writer, client *ollama.Client) {
	ctx, cancel := context.WithTimeout(ctx, ollamaProbeTimeout)
	defer cancel()

	fmt.Fprintln(out, SectionStyle.Render("Ollama"))
	if err := client.CheckRunning(ctx); err != nil {
		fmt.Fprintf(out, "%s %v\n", RenderStatus("unreachable"), err)
		return
	}
	fmt.Fprintf(out, "%s running at %s\n", RenderStatus("running"), client.GetConfig().BaseURL)

	models, err := client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(out, "%s %v\n", RenderStatus("error"), err)
		return
	}
	want := client.GetConfig().DefaultModel
	for _, m := range models {
		marker := "  "
		if m.Name == want {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintf(out, "%s%s\n", marker, m.Name)
	}
	if len(models) == 0 {
		fmt.Fprintln(out, DimStyle.Render("  no models installed"))
	}
}
