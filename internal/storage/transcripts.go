// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/helpie/internal/model"
	"github.com/jeranaias/helpie/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is a saved chat session.
type Transcript struct {
	ID        string       `json:"id"`
	Summary   string       `json:"summary"`
	CreatedAt time.Time    `json:"created_at"`
	SavedAt   time.Time    `json:"saved_at"`
	Turns     []model.Turn `json:"turns"`
}

// TranscriptMeta is the listing view of a transcript.
type TranscriptMeta struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	SavedAt   time.Time `json:"saved_at"`
	TurnCount int       `json:"turn_count"`
}

// NewTranscript snapshots a conversation.
func NewTranscript(conv *model.Conversation) *Transcript {
	return &Transcript{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt,
		Turns:     conv.Turns(),
	}
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore writes transcripts as one JSON file each.
type TranscriptStore struct {
	// BaseDir defaults to ~/.helpie/transcripts/.
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited).
	MaxTranscripts int
}

// NewTranscriptStore creates a store in the default directory.
func NewTranscriptStore() (*TranscriptStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewTranscriptStoreWithDir(filepath.Join(homeDir, ".helpie", "transcripts"))
}

// NewTranscriptStoreWithDir creates a store with a custom directory.
func NewTranscriptStoreWithDir(baseDir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &TranscriptStore{
		BaseDir:        baseDir,
		MaxTranscripts: 50,
	}, nil
}

// Save writes the transcript and returns its ID.
func (s *TranscriptStore) Save(tr *Transcript) (string, error) {
	if tr.ID == "" {
		tr.ID = model.NewConversation().ID
	}
	if tr.Summary == "" {
		tr.Summary = summarize(tr.Turns)
	}
	tr.SavedAt = time.Now()
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = tr.SavedAt
	}

	if err := util.WriteJSONFile(s.filePath(tr.ID), tr, "  ", 0644); err != nil {
		return "", err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return tr.ID, nil
}

// Load reads a transcript by ID.
func (s *TranscriptStore) Load(id string) (*Transcript, error) {
	if !validTranscriptID(id) {
		return nil, ErrTranscriptNotFound
	}
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	var tr Transcript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// List returns saved transcripts, most recent first. Unreadable files are
// skipped.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	metas := []TranscriptMeta{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		tr, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			ID:        tr.ID,
			Summary:   tr.Summary,
			SavedAt:   tr.SavedAt,
			TurnCount: len(tr.Turns),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

// Delete removes a transcript.
func (s *TranscriptStore) Delete(id string) error {
	if !validTranscriptID(id) {
		return ErrTranscriptNotFound
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// enforceLimit removes the oldest transcripts beyond MaxTranscripts.
func (s *TranscriptStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	for _, m := range metas[s.MaxTranscripts:] {
		s.Delete(m.ID)
	}
}

func (s *TranscriptStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// summarize uses the first user turn, flattened to one line.
func summarize(turns []model.Turn) string {
	for _, t := range turns {
		if t.Role == model.RoleUser && t.Raw != "" {
			s := strings.ReplaceAll(t.Raw, "\r", "")
			s = strings.ReplaceAll(s, "\n", " ")
			return util.TruncateRunes(s, 50)
		}
	}
	return "New conversation"
}

// validTranscriptID rejects ids that could escape BaseDir.
func validTranscriptID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".."
}

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
var ErrTranscriptNotFound = &StoreError{Message: "transcript not found"}
