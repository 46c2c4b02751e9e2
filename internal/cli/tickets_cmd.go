// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/storage"
	"github.com/jeranaias/helpie/internal/util"
)

// Ticket table column widths.
const (
	colID       = 10
	colName     = 16
	colStatus   = 8
	colPriority = 8
	colAssigned = 14
	colIssue    = 40
)

func newTicketsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tickets",
		Aliases: []string{"ticket", "t"},
		Short:   "Manage helpdesk tickets",
	}
	cmd.AddCommand(
		newTicketsListCommand(opts),
		newTicketsAddCommand(opts),
		newTicketsShowCommand(opts),
		newTicketsUpdateCommand(opts),
		newTicketsCloseCommand(opts),
		newTicketsStatsCommand(opts),
	)
	return cmd
}

// withTickets opens the configured store for the duration of fn.
func withTickets(opts *rootOptions, fn func(storage.TicketStore) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	store, err := openTickets(cfg)
	if err != nil {
		return fmt.Errorf("open ticket store: %w", err)
	}
	defer store.Shutdown()
	return fn(store)
}

func newTicketsListCommand(opts *rootOptions) *cobra.Command {
	var search string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tickets, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				tickets, err := store.Search(search)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSONOut(cmd.OutOrStdout(), tickets)
				}
				printTicketTable(cmd.OutOrStdout(), tickets)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive filter over name, issue, status, priority and assignee")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newTicketsAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <issue...>",
		Short: "Open a ticket; priority is classified from the issue text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				t, err := store.Create(args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s created ticket %s (%s)\n",
					SuccessStyle.Render("[OK]"), t.ID, RenderPriority(string(t.Priority)))
				return nil
			})
		},
	}
}

func newTicketsShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				t, err := store.Get(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, TitleStyle.Render("Ticket "+t.ID))
				for _, row := range [][2]string{
					{"Name", t.Name},
					{"Issue", t.Issue},
					{"Status", string(t.Status)},
					{"Priority", RenderPriority(string(t.Priority))},
					{"Assigned", t.Assigned},
					{"Created", t.Created},
				} {
					fmt.Fprintf(out, "%s%s\n", RenderLabel(row[0]+":", 12), row[1])
				}
				return nil
			})
		},
	}
}

func newTicketsUpdateCommand(opts *rootOptions) *cobra.Command {
	var priority, status, assign, issue string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a ticket's priority, status, assignee or issue",
		Long: fmt.Sprintf(`Change a ticket's fields. Unset flags keep their current value.

Known assignees: %s`, strings.Join(storage.Assignees, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				t, err := store.Get(args[0])
				if err != nil {
					return err
				}
				upd := storage.TicketUpdate{
					Priority: t.Priority,
					Issue:    t.Issue,
					Assigned: t.Assigned,
					Status:   t.Status,
				}
				flags := cmd.Flags()
				if flags.Changed("priority") {
					upd.Priority = storage.Priority(priority)
				}
				if flags.Changed("status") {
					upd.Status = storage.Status(status)
				}
				if flags.Changed("assign") {
					upd.Assigned = assign
				}
				if flags.Changed("issue") {
					upd.Issue = issue
				}
				if err := upd.Validate(); err != nil {
					return err
				}
				updated, err := store.Update(t.ID, upd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s updated ticket %s\n", SuccessStyle.Render("[OK]"), updated.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "High, Medium or Low")
	cmd.Flags().StringVar(&status, "status", "", "Open or Closed")
	cmd.Flags().StringVar(&assign, "assign", "", "Assignee name")
	cmd.Flags().StringVar(&issue, "issue", "", "Issue description")
	return cmd
}

func newTicketsCloseCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				if _, err := store.Get(args[0]); err != nil {
					return err
				}
				if err := store.Close(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s closed ticket %s\n", SuccessStyle.Render("[OK]"), args[0])
				return nil
			})
		},
	}
}

func newTicketsStatsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTickets(opts, func(store storage.TicketStore) error {
				st, err := store.Stats()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSONOut(out, st)
				}
				for _, row := range []struct {
					label string
					n     int
				}{
					{"Total", st.Total},
					{"Open", st.Open},
					{"Closed", st.Closed},
					{"High", st.High},
					{"Medium", st.Medium},
					{"Low", st.Low},
				} {
					fmt.Fprintf(out, "%s%d\n", RenderLabel(row.label+":", 10), row.n)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// printTicketTable writes tickets as fixed-width columns. Widths are
// measured in terminal cells so names with wide characters line up.
func printTicketTable(out io.Writer, tickets []storage.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No tickets."))
		return
	}

	header := strings.Join([]string{
		util.PadWidth("ID", colID),
		util.PadWidth("NAME", colName),
		util.PadWidth("STATUS", colStatus),
		util.PadWidth("PRIORITY", colPriority),
		util.PadWidth("ASSIGNED", colAssigned),
		"ISSUE",
	}, " ")
	fmt.Fprintln(out, SectionStyle.Render(header))

	for _, t := range tickets {
		fmt.Fprintln(out, strings.Join([]string{
			util.PadWidth(t.ID, colID),
			util.PadWidth(t.Name, colName),
			util.PadWidth(string(t.Status), colStatus),
			padStyled(RenderPriority(string(t.Priority)), string(t.Priority), colPriority),
			util.PadWidth(t.Assigned, colAssigned),
			util.TruncateWidth(t.Issue, colIssue),
		}, " "))
	}
	fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("%d ticket(s)", len(tickets))))
}

// padStyled pads an already styled value using the width of its plain text.
func padStyled(styled, plain string, width int) string {
	return styled + strings.Repeat(" ", max(0, width-len(util.TruncateWidth(plain, width))))
}

func writeJSONOut(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
