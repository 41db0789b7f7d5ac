package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/skola/internal/models"
)

// Table names accepted by Store.RunInTransaction.
const (
	TableDecks      = "decks"
	TableNotes      = "notes"
	TableCards      = "cards"
	TableReviewLogs = "review_logs"
	TableDeckStats  = "deck_stats"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	// ErrNotFound is returned by updates that matched no row.
	ErrNotFound = errors.New("not found")
)

// CardRepository handles card data access
type CardRepository interface {
	Query(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Get(ctx context.Context, id string) (*models.Card, error)
	Insert(ctx context.Context, card models.Card) error
	UpdateModel(ctx context.Context, id string, model models.CardModel) error
	UpdateContent(ctx context.Context, id string, content models.CardContent, preview string) error
	ListByNote(ctx context.Context, noteID string) ([]models.Card, error)
}

// NoteRepository handles note data access
type NoteRepository interface {
	Get(ctx context.Context, id string) (*models.Note, error)
	Insert(ctx context.Context, note models.Note) error
	UpdateContent(ctx context.Context, id string, content models.NoteContent, updatedAt time.Time) error
	ListByDeck(ctx context.Context, deckID string) ([]models.Note, error)
}

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id string) (*models.Deck, error)
	List(ctx context.Context) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) error
}

// ReviewLogRepository stores the history of applied ratings
type ReviewLogRepository interface {
	Insert(ctx context.Context, cardID string, log models.ReviewLog) error
	ListForCard(ctx context.Context, cardID string) ([]models.ReviewLog, error)
}

// StatsRepository keeps per-deck daily rating counts
type StatsRepository interface {
	RecordRating(ctx context.Context, deckID string, at time.Time, rating models.Rating) error
	DeckStats(ctx context.Context, deckID string, days int) ([]models.DeckDayStat, error)
}

// Store bundles the repositories over one database.
//
// RunInTransaction runs fn with a Store whose repositories all share one
// transaction. The transaction commits when fn returns nil and rolls back
// otherwise. tables names the tables fn intends to touch; unknown names
// are rejected with ErrUnknownTable. Calling RunInTransaction on a Store
// that is already inside a transaction runs fn in that transaction.
type Store interface {
	Cards() CardRepository
	Notes() NoteRepository
	Decks() DeckRepository
	ReviewLogs() ReviewLogRepository
	Stats() StatsRepository
	RunInTransaction(ctx context.Context, tables []string, fn func(Store) error) error
}
