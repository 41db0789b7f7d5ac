package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

type statsRepository struct {
	db querier
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) RecordRating(ctx context.Context, deckID string, at time.Time, rating models.Rating) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	day := dayKey(at)
	log.Debug("recording rating: deck_id=%s, day=%s, rating=%s", deckID, day, rating)

	if !rating.Valid() {
		return fmt.Errorf("invalid rating %d", int(rating))
	}
	var again, hard, good, easy int
	switch rating {
	case models.RatingAgain:
		again = 1
	case models.RatingHard:
		hard = 1
	case models.RatingGood:
		good = 1
	case models.RatingEasy:
		easy = 1
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO deck_stats (deck_id, day, reviews, again, hard, good, easy)
VALUES (?, ?, 1, ?, ?, ?, ?)
ON CONFLICT(deck_id, day) DO UPDATE SET
    reviews = reviews + 1,
    again = again + excluded.again,
    hard = hard + excluded.hard,
    good = good + excluded.good,
    easy = easy + excluded.easy
`, deckID, day, again, hard, good, easy)
	if err != nil {
		log.Error("failed to record rating: %v", err)
	}
	return err
}

// DeckStats returns the most recent days first. days <= 0 returns all days.
func (r *statsRepository) DeckStats(ctx context.Context, deckID string, days int) ([]models.DeckDayStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("fetching deck stats: deck_id=%s, days=%d", deckID, days)

	query := sqlBuilder.Select("deck_id", "day", "reviews", "again", "hard", "good", "easy").
		From("deck_stats").
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("day DESC")
	if days > 0 {
		query = query.Limit(uint64(days))
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query deck stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var stats []models.DeckDayStat
	for rows.Next() {
		var s models.DeckDayStat
		if err := rows.Scan(&s.DeckID, &s.Day, &s.Reviews, &s.Again, &s.Hard, &s.Good, &s.Easy); err != nil {
			log.Error("failed to scan deck stat row: %v", err)
			return nil, err
		}
		stats = append(stats, s)
	}
	log.Debug("found %d deck stat days", len(stats))
	return stats, rows.Err()
}
