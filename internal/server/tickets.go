// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"

	"github.com/jeranaias/helpie/internal/storage"
)

// ============================================================================
// TICKET TYPES
// ============================================================================

// TicketListResponse is returned by GET /tickets.
type TicketListResponse struct {
	Tickets []storage.Ticket `json:"tickets"`
	Search  string           `json:"search"`
	Success bool             `json:"success"`
}

// TicketEditResponse is returned by GET /tickets/edit/{id}.
type TicketEditResponse struct {
	Ticket storage.Ticket `json:"ticket"`
	Users  []string       `json:"users"`
}

type createTicketRequest struct {
	Name  string `json:"name"`
	Issue string `json:"issue"`
}

// ============================================================================
// TICKET HANDLERS
// ============================================================================

// handleHome returns the dashboard counters.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tickets.Stats()
	if err != nil {
		s.storageError(w, "stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	tickets, err := s.tickets.Search(query)
	if err != nil {
		s.storageError(w, "search", err)
		return
	}
	s.writeJSON(w, http.StatusOK, TicketListResponse{
		Tickets: tickets,
		Search:  query,
		Success: r.URL.Query().Get("success") == "1",
	})
}

// handleCreateTicket accepts a form post (answered with a redirect) or a
// JSON body (answered with the new ticket).
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req createTicketRequest
	asJSON := isJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		req.Name = r.PostForm.Get("name")
		req.Issue = r.PostForm.Get("issue")
	}

	t, err := s.tickets.Create(req.Name, req.Issue)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidTicket) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.storageError(w, "create", err)
		return
	}
	log.Printf("TICKET_CREATED | id=%s priority=%s", t.ID, t.Priority)

	if !asJSON {
		http.Redirect(w, r, "/tickets?success=1", http.StatusSeeOther)
		return
	}
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.tickets.Get(r.PathValue("id"))
	if err != nil {
		s.storageError(w, "get", err)
		return
	}
	s.writeJSON(w, http.StatusOK, TicketEditResponse{Ticket: t, Users: storage.Assignees})
}

func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)
	id := r.PathValue("id")

	var upd storage.TicketUpdate
	asJSON := isJSON(r)
	if asJSON {
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid form body")
			return
		}
		upd = storage.TicketUpdate{
			Priority: storage.Priority(r.PostForm.Get("priority")),
			Issue:    r.PostForm.Get("issue"),
			Assigned: r.PostForm.Get("assigned"),
			Status:   storage.Status(r.PostForm.Get("status")),
		}
	}

	t, err := s.tickets.Update(id, upd)
	if err != nil {
		s.storageError(w, "update", err)
		return
	}
	log.Printf("TICKET_UPDATED | id=%s status=%s assigned=%q", t.ID, t.Status, t.Assigned)

	if !asJSON {
		http.Redirect(w, r, "/tickets", http.StatusSeeOther)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// handleCloseTicket closes a ticket and redirects to the list. Unknown ids
// redirect too.
func (s *Server) handleCloseTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.tickets.Close(id); err != nil {
		s.storageError(w, "close", err)
		return
	}
	log.Printf("TICKET_CLOSED | id=%s", id)
	http.Redirect(w, r, "/tickets", http.StatusSeeOther)
}

// storageError maps store errors to responses.
func (s *Server) storageError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrTicketNotFound):
		s.writeError(w, http.StatusNotFound, storage.ErrTicketNotFound.Message)
	case errors.Is(err, storage.ErrInvalidTicket):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("TICKET_STORE_ERROR | op=%s error=%v", op, err)
		s.writeError(w, http.StatusInternalServerError, "Ticket storage unavailable")
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
