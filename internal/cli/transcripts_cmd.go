// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/export"
	"github.com/jeranaias/helpie/internal/storage"
	"github.com/jeranaias/helpie/internal/util"
)

func newTranscriptsCommand() *cobra.Command {
	var dir string

	open := func() (*storage.TranscriptStore, error) {
		if dir != "" {
			return storage.NewTranscriptStoreWithDir(dir)
		}
		return storage.NewTranscriptStore()
	}

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Browse chat transcripts saved with /save",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Transcript directory (default ~/.helpie/transcripts)")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved transcripts, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			metas, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(metas) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No saved transcripts."))
				return nil
			}
			for _, m := range metas {
				fmt.Fprintf(out, "%s %s %s %s\n",
					util.PadWidth(m.ID, 36),
					DimStyle.Render(m.SavedAt.Format("2006-01-02 15:04")),
					util.PadWidth(fmt.Sprintf("%d turns", m.TurnCount), 10),
					m.Summary)
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			tr, err := store.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render(tr.Summary))
			for _, t := range tr.Turns {
				fmt.Fprintf(out, "%s %s\n", RenderLabel(t.Role.DisplayName()+":", 10), t.Raw)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transcript",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", SuccessStyle.Render("[OK]"), args[0])
			return nil
		},
	}

	var format, outDir string
	exp := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a transcript as Markdown, HTML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			tr, err := store.Load(args[0])
			if err != nil {
				return err
			}
			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}
			path, err := export.ExportToFile(tr, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s exported to %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	exp.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, html or json")
	exp.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")

	cmd.AddCommand(list, show, del, exp)
	return cmd
}
