// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jeranaias/helpie/internal/chat"
	"github.com/jeranaias/helpie/internal/model"
)

// ============================================================================
// ASSISTANT TYPES
// ============================================================================

// TurnView is one conversation turn as sent to the browser.
type TurnView struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
	HTML    string     `json:"html,omitempty"`
}

// OpenResponse is returned by GET /helpie.
type OpenResponse struct {
	Session  string     `json:"session"`
	Messages []TurnView `json:"messages"`
}

// ChatRequest is the POST /helpie/chat body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries exactly one of Reply or Error.
type ChatResponse struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// ============================================================================
// ASSISTANT HANDLERS
// ============================================================================

// handleHelpieOpen starts the caller's conversation over from the greeting.
func (s *Server) handleHelpieOpen(w http.ResponseWriter, r *http.Request) {
	id, conv := s.sessions.Open(sessionID(r))
	setSessionCookie(w, id)

	turns := conv.Turns()
	views := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, TurnView{Role: t.Role, Content: t.Raw, HTML: t.Rendered})
	}
	s.writeJSON(w, http.StatusOK, OpenResponse{Session: id, Messages: views})
}

// handleHelpieChat runs one turn. Failures are reported in the body with
// status 200.
func (s *Server) handleHelpieChat(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "Message too large.")
			return
		}
		// An unreadable body is treated like an empty message.
		req.Message = ""
	}

	prev := sessionID(r)
	id, conv := s.sessions.Attach(prev)
	if id != prev {
		setSessionCookie(w, id)
	}

	doc, err := s.chat.HandleTurn(r.Context(), conv, req.Message)
	if err != nil {
		var cerr *chat.Error
		if !errors.As(err, &cerr) {
			log.Printf("CHAT_ERROR | session=%s error=%v", id, err)
			s.writeJSON(w, http.StatusOK, ChatResponse{Error: "Something went wrong."})
			return
		}
		s.writeJSON(w, http.StatusOK, ChatResponse{Error: cerr.Message})
		return
	}
	s.writeJSON(w, http.StatusOK, ChatResponse{Reply: doc.HTML()})
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
