package api

import (
	"context"

	"github.com/vytor/skola/internal/services"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Decks   services.DeckService
	Notes   services.NoteService
	Learn   services.LearnService
	DB      Pinger
	Limiter *ClientLimiter
}
