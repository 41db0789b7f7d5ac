package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

type reviewLogRepository struct {
	db querier
}

// NewReviewLogRepository creates a new ReviewLogRepository implementation
func NewReviewLogRepository(db *sql.DB) repository.ReviewLogRepository {
	return &reviewLogRepository{db: db}
}

func (r *reviewLogRepository) Insert(ctx context.Context, cardID string, l models.ReviewLog) error {
	log := logger.FromContext(ctx).WithPrefix("review_log_repo")
	log.Debug("inserting review log: card_id=%s, rating=%s", cardID, l.Rating)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_logs (card_id, rating, state, scheduled_days, elapsed_days, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?)
`, cardID, int(l.Rating), int(l.State), l.ScheduledDays, l.ElapsedDays, utc(l.Review))
	if err != nil {
		log.Error("failed to insert review log: %v", err)
	}
	return err
}

func (r *reviewLogRepository) ListForCard(ctx context.Context, cardID string) ([]models.ReviewLog, error) {
	log := logger.FromContext(ctx).WithPrefix("review_log_repo")
	log.Debug("listing review logs: card_id=%s", cardID)

	rows, err := r.db.QueryContext(ctx, `
SELECT rating, state, scheduled_days, elapsed_days, reviewed_at
FROM review_logs
WHERE card_id = ?
ORDER BY reviewed_at, id
`, cardID)
	if err != nil {
		log.Error("failed to query review logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var logs []models.ReviewLog
	for rows.Next() {
		var (
			l             models.ReviewLog
			rating, state int
		)
		if err := rows.Scan(&rating, &state, &l.ScheduledDays, &l.ElapsedDays, &l.Review); err != nil {
			log.Error("failed to scan review log row: %v", err)
			return nil, err
		}
		l.Rating = models.Rating(rating)
		l.State = models.State(state)
		l.Review = l.Review.UTC()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
