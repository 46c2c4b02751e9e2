// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/config"
	"github.com/jeranaias/helpie/internal/server"
	"github.com/jeranaias/helpie/internal/session"
)

const (
	// rateLimitBurst is the per-IP burst allowance on top of server.rate_limit
	rateLimitBurst = 30

	shutdownTimeout = 10 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the helpdesk HTTP server",
		Long: `Serve the ticket API and the Helpie chat endpoints.

Stops gracefully on Ctrl+C or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides server.port and PORT)")
	return cmd
}

// runServer blocks until ctx is cancelled or the listener fails.
func runServer(ctx context.Context, cfg *config.Config) error {
	orch, gw, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	tickets, err := openTickets(cfg)
	if err != nil {
		return fmt.Errorf("open ticket store: %w", err)
	}
	defer func() {
		if err := tickets.Shutdown(); err != nil {
			log.Printf("TICKET_STORE_ERROR | op=shutdown error=%v", err)
		}
	}()

	sessions := session.NewStore(sessionConfig(cfg), chat.Greeting())
	go sessions.Run(ctx)

	srv := server.NewServer(cfg.Server.Port, tickets, sessions, orch).
		WithGateway(gw).
		WithRateLimiter(server.NewRateLimiter(cfg.Server.RateLimit, rateLimitBurst))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
