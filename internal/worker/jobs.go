package worker

import (
	"context"
	"fmt"

	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

// PersistReviewJob writes one applied rating: the card's new model, the
// review log entry and the deck's daily tally, all in one transaction.
type PersistReviewJob struct {
	Store   repository.Store
	Card    models.Card
	Outcome models.Outcome
	// OnError is called when the write fails.
	OnError func(error)
}

func (j *PersistReviewJob) Name() string { return "persist_review" }

// Key orders writes per card, so a later rating never loses to an earlier one.
func (j *PersistReviewJob) Key() string { return j.Card.ID }

func (j *PersistReviewJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"card_id": j.Card.ID,
		"rating":  j.Outcome.Log.Rating.String(),
	})

	reviewedAt := j.Outcome.Log.Review
	if reviewedAt.IsZero() {
		reviewedAt = j.Outcome.Card.LastReview
	}

	tables := []string{repository.TableCards, repository.TableReviewLogs, repository.TableDeckStats}
	err := j.Store.RunInTransaction(ctx, tables, func(tx repository.Store) error {
		if err := tx.Cards().UpdateModel(ctx, j.Card.ID, j.Outcome.Card); err != nil {
			return fmt.Errorf("update card: %w", err)
		}
		if err := tx.ReviewLogs().Insert(ctx, j.Card.ID, j.Outcome.Log); err != nil {
			return fmt.Errorf("insert review log: %w", err)
		}
		if err := tx.Stats().RecordRating(ctx, j.Card.DeckID, reviewedAt, j.Outcome.Log.Rating); err != nil {
			return fmt.Errorf("record deck stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if j.OnError != nil {
			j.OnError(err)
		}
		return err
	}

	log.Debug("review persisted: state=%s, due=%s", j.Outcome.Card.State, j.Outcome.Card.Due.Format("2006-01-02 15:04"))
	return nil
}
