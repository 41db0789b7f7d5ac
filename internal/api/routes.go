package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.Limiter != nil {
			r.Use(s.Limiter.Middleware)
		}

		r.Get("/note-types", s.handleNoteTypes)

		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Get("/decks/{id}/stats", s.handleDeckStats)
		r.Get("/decks/{id}/notes", s.handleListNotes)
		r.Post("/decks/{id}/notes", s.handleCreateNote)

		r.Get("/notes/{id}", s.handleGetNote)
		r.Put("/notes/{id}", s.handleUpdateNote)
		r.Get("/cards/{id}/render", s.handleRenderCard)

		r.Post("/sessions", s.handleStartSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/advance", s.handleAdvance)
			r.Post("/back", s.handleGoBack)
			r.Post("/reveal", s.handleReveal)
			r.Post("/rate", s.handleRate)
			r.Post("/select", s.handleSelect)
			r.Post("/grade", s.handleGrade)
			r.Post("/draft", s.handleSaveDraft)
		})
	})
	return r
}
