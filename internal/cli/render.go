// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/markup"
)

func newRenderCommand() *cobra.Command {
	var asMarkdown bool

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render assistant markdown the way the chat widget shows it",
		Long: `Read model output from a file (or stdin with "-" or no argument), strip
<think> spans, normalize it and print the HTML fragment the chat widget would display.

With --markdown the normalized markdown is printed instead, styled for the
terminal when stdout is a TTY.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			text := string(data)

			out := cmd.OutOrStdout()
			if !asMarkdown {
				fmt.Fprintln(out, markup.RenderHTML(text))
				return nil
			}

			normalized := markup.Normalize(text)
			if IsStdoutTTY() {
				if r := newMarkdownRenderer(); r != nil {
					if rendered, err := r.Render(normalized); err == nil {
						fmt.Fprint(out, rendered)
						return nil
					}
				}
			}
			fmt.Fprintln(out, normalized)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asMarkdown, "markdown", "m", false, "Print normalized markdown instead of HTML")
	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}
