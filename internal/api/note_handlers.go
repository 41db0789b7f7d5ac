package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/models"
)

type noteRequest struct {
	Type    models.NoteType    `json:"type"`
	Content models.NoteContent `json:"content"`
}

func (s *Server) handleNoteTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Notes.NoteTypes())
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.Notes.ListNotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, r, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Type == "" {
		handleError(w, r, errors.NewValidationError("type", "is required"))
		return
	}
	created, err := s.Notes.CreateNote(r.Context(), chi.URLParam(r, "id"), req.Type, req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.Notes.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, note)
}

// handleUpdateNote replaces the content of a note. A type, when given,
// must match the stored note's type.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if req.Type != "" {
		existing, err := s.Notes.GetNote(r.Context(), id)
		if err != nil {
			handleError(w, r, err)
			return
		}
		if existing.Note.Type != req.Type {
			handleError(w, r, errors.NewBadRequestError("note type cannot be changed"))
			return
		}
	}
	updated, err := s.Notes.UpdateNote(r.Context(), id, req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleRenderCard(w http.ResponseWriter, r *http.Request) {
	rendered, err := s.Notes.RenderCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rendered)
}
