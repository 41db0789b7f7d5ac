package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

var cardColumns = []string{
	"id", "note_id", "deck_id", "content", "preview", "state", "due", "stability", "difficulty",
	"elapsed_days", "scheduled_days", "reps", "lapses", "last_review", "created_at",
}

type cardRepository struct {
	db querier
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Query(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("querying cards: deck_id=%s, note_id=%s, ids=%d, states=%v, limit=%d",
		filter.DeckID, filter.NoteID, len(filter.IDs), filter.States, filter.Limit)

	query := sqlBuilder.Select(cardColumns...).From("cards")
	if filter.DeckID != "" {
		query = query.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if filter.NoteID != "" {
		query = query.Where(squirrel.Eq{"note_id": filter.NoteID})
	}
	if len(filter.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": filter.IDs})
	}
	if len(filter.States) > 0 {
		states := make([]int, len(filter.States))
		for i, s := range filter.States {
			states[i] = int(s)
		}
		query = query.Where(squirrel.Eq{"state": states})
	}
	if filter.DueBefore != nil {
		query = query.Where(squirrel.LtOrEq{"due": utc(*filter.DueBefore)})
	}
	query = query.OrderBy("created_at", "id")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build card query: %v", err)
		return nil, err
	}
	return r.list(ctx, log, sqlStr, args...)
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s", id)

	sqlStr, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCard(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: id=%s, note_id=%s, type=%s", c.ID, c.NoteID, c.Content.Type)

	content, err := marshalJSON(c.Content)
	if err != nil {
		return fmt.Errorf("encode card content: %w", err)
	}
	m := c.Model
	_, err = r.db.ExecContext(ctx, `
INSERT INTO cards (id, note_id, deck_id, content, preview, state, due, stability, difficulty,
                   elapsed_days, scheduled_days, reps, lapses, last_review, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.ID, c.NoteID, c.DeckID, content, c.Preview, int(m.State), utc(m.Due), m.Stability, m.Difficulty,
		m.ElapsedDays, m.ScheduledDays, m.Reps, m.Lapses, nullTime(m.LastReview), utc(c.CreatedAt))
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return err
	}
	return nil
}

func (r *cardRepository) UpdateModel(ctx context.Context, id string, m models.CardModel) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card model: id=%s, state=%s, due=%s", id, m.State, m.Due.Format("2006-01-02 15:04"))

	res, err := r.db.ExecContext(ctx, `
UPDATE cards
SET state = ?, due = ?, stability = ?, difficulty = ?, elapsed_days = ?, scheduled_days = ?,
    reps = ?, lapses = ?, last_review = ?
WHERE id = ?
`, int(m.State), utc(m.Due), m.Stability, m.Difficulty, m.ElapsedDays, m.ScheduledDays,
		m.Reps, m.Lapses, nullTime(m.LastReview), id)
	if err != nil {
		log.Error("failed to update card model: %v", err)
		return err
	}
	return requireAffected(res, "card", id)
}

func (r *cardRepository) UpdateContent(ctx context.Context, id string, content models.CardContent, preview string) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("updating card content: id=%s", id)

	encoded, err := marshalJSON(content)
	if err != nil {
		return fmt.Errorf("encode card content: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE cards SET content = ?, preview = ? WHERE id = ?`, encoded, preview, id)
	if err != nil {
		log.Error("failed to update card content: %v", err)
		return err
	}
	return requireAffected(res, "card", id)
}

func (r *cardRepository) ListByNote(ctx context.Context, noteID string) ([]models.Card, error) {
	return r.Query(ctx, models.CardFilter{NoteID: noteID})
}

func (r *cardRepository) list(ctx context.Context, log *logger.Logger, query string, args ...any) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func scanCard(row rowScanner) (models.Card, error) {
	var (
		c          models.Card
		content    string
		state      int
		lastReview sql.NullTime
	)
	err := row.Scan(&c.ID, &c.NoteID, &c.DeckID, &content, &c.Preview, &state, &c.Model.Due,
		&c.Model.Stability, &c.Model.Difficulty, &c.Model.ElapsedDays, &c.Model.ScheduledDays,
		&c.Model.Reps, &c.Model.Lapses, &lastReview, &c.CreatedAt)
	if err != nil {
		return models.Card{}, err
	}
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return models.Card{}, fmt.Errorf("decode content of card %s: %w", c.ID, err)
	}
	c.Model.State = models.State(state)
	c.Model.Due = c.Model.Due.UTC()
	c.Model.LastReview = fromNullTime(lastReview)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	return nil
}
