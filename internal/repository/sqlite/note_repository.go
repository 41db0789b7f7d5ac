package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

var noteColumns = []string{"id", "deck_id", "type", "content", "created_at", "updated_at"}

type noteRepository struct {
	db querier
}

// NewNoteRepository creates a new NoteRepository implementation
func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	log := logger.FromContext(ctx).WithPrefix("note_repo")
	log.Debug("getting note: id=%s", id)

	sqlStr, args, err := sqlBuilder.Select(noteColumns...).From("notes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	n, err := scanNote(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("note not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get note: %v", err)
		return nil, err
	}
	log.Debug("note found: type=%s, deck_id=%s", n.Type, n.DeckID)
	return &n, nil
}

func (r *noteRepository) Insert(ctx context.Context, n models.Note) error {
	log := logger.FromContext(ctx).WithPrefix("note_repo")
	log.Debug("inserting note: id=%s, deck_id=%s, type=%s", n.ID, n.DeckID, n.Type)

	content, err := marshalJSON(n.Content)
	if err != nil {
		return fmt.Errorf("encode note content: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO notes (id, deck_id, type, content, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, n.ID, n.DeckID, string(n.Type), content, utc(n.CreatedAt), utc(n.UpdatedAt))
	if err != nil {
		log.Error("failed to insert note: %v", err)
		return err
	}
	return nil
}

func (r *noteRepository) UpdateContent(ctx context.Context, id string, content models.NoteContent, updatedAt time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("note_repo")
	log.Debug("updating note content: id=%s", id)

	encoded, err := marshalJSON(content)
	if err != nil {
		return fmt.Errorf("encode note content: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE notes SET content = ?, updated_at = ? WHERE id = ?`, encoded, utc(updatedAt), id)
	if err != nil {
		log.Error("failed to update note: %v", err)
		return err
	}
	return requireAffected(res, "note", id)
}

func (r *noteRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Note, error) {
	log := logger.FromContext(ctx).WithPrefix("note_repo")
	log.Debug("listing notes: deck_id=%s", deckID)

	sqlStr, args, err := sqlBuilder.Select(noteColumns...).From("notes").
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query notes: %v", err)
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			log.Error("failed to scan note row: %v", err)
			return nil, err
		}
		notes = append(notes, n)
	}
	log.Debug("found %d notes", len(notes))
	return notes, rows.Err()
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n        models.Note
		noteType string
		content  string
	)
	if err := row.Scan(&n.ID, &n.DeckID, &noteType, &content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return models.Note{}, err
	}
	if err := json.Unmarshal([]byte(content), &n.Content); err != nil {
		return models.Note{}, fmt.Errorf("decode content of note %s: %w", n.ID, err)
	}
	n.Type = models.NoteType(noteType)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}
