package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/repository"
)

var knownTables = map[string]bool{
	repository.TableDecks:      true,
	repository.TableNotes:      true,
	repository.TableCards:      true,
	repository.TableReviewLogs: true,
	repository.TableDeckStats:  true,
}

type store struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// NewStore creates a Store over db.
func NewStore(db *sql.DB) repository.Store {
	return &store{db: db, q: db}
}

func (s *store) Cards() repository.CardRepository           { return &cardRepository{db: s.q} }
func (s *store) Notes() repository.NoteRepository           { return &noteRepository{db: s.q} }
func (s *store) Decks() repository.DeckRepository           { return &deckRepository{db: s.q} }
func (s *store) ReviewLogs() repository.ReviewLogRepository { return &reviewLogRepository{db: s.q} }
func (s *store) Stats() repository.StatsRepository          { return &statsRepository{db: s.q} }

// SQLite locks the whole database for a write transaction, so tables only
// scopes what is validated and logged.
func (s *store) RunInTransaction(ctx context.Context, tables []string, fn func(repository.Store) error) error {
	log := logger.FromContext(ctx).WithPrefix("store")

	for _, t := range tables {
		if !knownTables[t] {
			return fmt.Errorf("%w: %q", repository.ErrUnknownTable, t)
		}
	}
	scope := strings.Join(tables, ",")

	if s.inTx {
		log.Debug("joining transaction: tables=%s", scope)
		return fn(s)
	}

	log.Debug("starting transaction: tables=%s", scope)
	return tx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&store{db: s.db, q: tx, inTx: true})
	})
}
