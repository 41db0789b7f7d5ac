package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/services"
)

type rateRequest struct {
	Rating string `json:"rating"`
	// Advance moves on to the next card after rating.
	Advance bool `json:"advance"`
}

type selectRequest struct {
	CardID string `json:"card_id"`
}

type gradeRequest struct {
	Input string `json:"input"`
}

type draftRequest struct {
	CardID string `json:"card_id"`
	Text   string `json:"text"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req services.StartRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.Learn.Start(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

// sessionStep adapts a LearnService call that only needs the session id.
func (s *Server) sessionStep(fn func(ctx context.Context, id string) (*services.SessionView, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, view)
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.sessionStep(s.Learn.Get)(w, r)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.sessionStep(s.Learn.Advance)(w, r)
}

func (s *Server) handleGoBack(w http.ResponseWriter, r *http.Request) {
	s.sessionStep(s.Learn.GoBack)(w, r)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	s.sessionStep(s.Learn.Reveal)(w, r)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	s.sessionStep(s.Learn.End)(w, r)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	rating, err := models.ParseRating(req.Rating)
	if err != nil {
		log.Warn("invalid rating: %q", req.Rating)
		handleError(w, r, errors.NewValidationError("rating", err.Error()))
		return
	}

	view, err := s.Learn.Rate(r.Context(), chi.URLParam(r, "id"), rating, req.Advance)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.CardID == "" {
		handleError(w, r, errors.NewValidationError("card_id", "is required"))
		return
	}
	view, err := s.Learn.Select(r.Context(), chi.URLParam(r, "id"), req.CardID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	result, err := s.Learn.Grade(r.Context(), chi.URLParam(r, "id"), req.Input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	view, err := s.Learn.SaveDraft(r.Context(), chi.URLParam(r, "id"), req.CardID, req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}
