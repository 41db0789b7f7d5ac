package testutil

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/db"
	"github.com/vytor/skola/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// It is limited to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(sqlDB), "failed to apply migrations")
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Fixed is a reference time for tests that need stable timestamps.
var Fixed = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewCard builds a card in deck/note with the given state and due time.
func NewCard(id, deckID, noteID string, state models.State, due time.Time) models.Card {
	return models.Card{
		ID:        id,
		NoteID:    noteID,
		DeckID:    deckID,
		Model:     models.CardModel{State: state, Due: due},
		Content:   models.CardContent{Type: models.NoteTypeBasic},
		Preview:   "card " + id,
		CreatedAt: Fixed,
	}
}
