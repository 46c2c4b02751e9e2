// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/cloud"
	"github.com/jeranaias/helpie/internal/session"
	"github.com/jeranaias/helpie/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 5000

	// MaxRequestBodySize caps request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// SessionCookie names the cookie carrying the chat session id.
	SessionCookie = "helpie_session"

	// Version is the server version.
	Version = "1.0.0"
)

// ProviderLister exposes the registered generation providers.
type ProviderLister interface {
	Providers() []cloud.Provider
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the helpdesk HTTP server.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	tickets  storage.TicketStore
	sessions *session.Store
	chat     *chat.Orchestrator
	gateway  ProviderLister
	limiter  *RateLimiter
	logger   *log.Logger

	startTime time.Time
	mu        sync.RWMutex
}

// NewServer creates a Server. If port is 0, DefaultPort is used.
func NewServer(port int, tickets storage.TicketStore, sessions *session.Store, orch *chat.Orchestrator) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:      port,
		router:    http.NewServeMux(),
		tickets:   tickets,
		sessions:  sessions,
		chat:      orch,
		limiter:   DefaultRateLimiter(),
		logger:    log.Default(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

// WithGateway sets the provider source reported by /health.
func (s *Server) WithGateway(g ProviderLister) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateway = g
	return s
}

// WithRateLimiter replaces the rate limiter. nil disables rate limiting.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiter != nil && s.limiter != rl {
		s.limiter.Stop()
	}
	s.limiter = rl
	return s
}

// WithLogger sets the access logger.
func (s *Server) WithLogger(l *log.Logger) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleHome)

	s.router.HandleFunc("GET /tickets", s.handleListTickets)
	s.router.HandleFunc("POST /tickets", s.handleCreateTicket)
	s.router.HandleFunc("GET /tickets/edit/{id}", s.handleGetTicket)
	s.router.HandleFunc("POST /tickets/edit/{id}", s.handleUpdateTicket)
	s.router.HandleFunc("POST /tickets/close/{id}", s.handleCloseTicket)
	s.router.HandleFunc("GET /tickets/close/{id}", s.handleCloseTicket)

	s.router.HandleFunc("GET /helpie", s.handleHelpieOpen)
	s.router.HandleFunc("POST /helpie/chat", s.handleHelpieChat)

	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("/azure", s.handleAzureRetired)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter))
	}
	return Chain(middlewares...)(s.router)
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// ProviderStatus describes one registered provider.
type ProviderStatus struct {
	ID         cloud.ProviderID `json:"id"`
	Name       string           `json:"name"`
	Configured bool             `json:"configured"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Sessions  int              `json:"sessions"`
	Providers []ProviderStatus `json:"providers"`
}

// handleHealth reports "degraded" when no provider has credentials.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Version:   Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Providers: []ProviderStatus{},
	}
	if s.sessions != nil {
		health.Sessions = s.sessions.Len()
	}

	s.mu.RLock()
	gw := s.gateway
	s.mu.RUnlock()

	if gw != nil {
		configured := false
		for _, p := range gw.Providers() {
			health.Providers = append(health.Providers, ProviderStatus{
				ID:         p.ID(),
				Name:       p.Name(),
				Configured: p.Configured(),
			})
			configured = configured || p.Configured()
		}
		if !configured {
			health.Status = "degraded"
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

// handleAzureRetired answers the old Azure test page.
func (s *Server) handleAzureRetired(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusGone, "This endpoint has been retired. Use /helpie.")
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on all interfaces and blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv, limiter := s.server, s.limiter
	s.mu.RUnlock()

	if limiter != nil {
		limiter.Stop()
	}
	if srv == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// limitBody caps the request body at MaxRequestBodySize.
func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
}
