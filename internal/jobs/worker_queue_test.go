package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/jobs"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository/sqlite"
	"github.com/vytor/skola/internal/testutil"
	"github.com/vytor/skola/internal/worker"
)

func TestWorkerQueue_EnqueueReviewPersists(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.MustClose(t, db)
	store := sqlite.NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.Decks().Insert(ctx, models.Deck{ID: "d1", Name: "Deck", CreatedAt: testutil.Fixed}))
	require.NoError(t, store.Notes().Insert(ctx, models.Note{ID: "n1", DeckID: "d1", Type: models.NoteTypeBasic, CreatedAt: testutil.Fixed, UpdatedAt: testutil.Fixed}))
	card := testutil.NewCard("c1", "d1", "n1", models.StateNew, testutil.Fixed)
	require.NoError(t, store.Cards().Insert(ctx, card))

	pool := worker.NewPool(1, 4)
	pool.Start(ctx)
	q := jobs.NewWorkerQueue(pool, store)

	outcome := models.Outcome{
		Card: models.CardModel{State: models.StateLearning, Due: testutil.Fixed.Add(10 * time.Minute), Reps: 1},
		Log:  models.ReviewLog{Rating: models.RatingAgain, State: models.StateNew, Review: testutil.Fixed},
	}
	require.NoError(t, q.EnqueueReview(card, outcome, func(err error) { t.Errorf("unexpected failure: %v", err) }))
	pool.Stop()

	got, err := store.Cards().Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StateLearning, got.Model.State)

	assert.ErrorIs(t, q.EnqueueReview(card, outcome, nil), worker.ErrPoolStopped)
}
