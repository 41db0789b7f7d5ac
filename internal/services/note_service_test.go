package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/services"
	"github.com/vytor/skola/internal/testutil"
)

func TestNoteService_CreateUpdateRender(t *testing.T) {
	f := newLearnFixture(t)
	ctx := context.Background()

	created, err := f.notes.CreateNote(ctx, f.deck.ID, models.NoteTypeCloze, models.NoteContent{
		Text: "{{c1::Paris}} is the capital of {{c2::France}}",
	})
	require.NoError(t, err)
	require.Len(t, created.Cards, 2)

	updated, err := f.notes.UpdateNote(ctx, created.Note.ID, models.NoteContent{
		Text: "{{c1::Paris}} is the capital of {{c2::France}} in {{c3::Europe}}",
	})
	require.NoError(t, err)
	assert.Len(t, updated.Cards, 3)

	rendered, err := f.notes.RenderCard(ctx, created.Cards[0].ID)
	require.NoError(t, err)
	assert.Contains(t, rendered.Question, "[...]")
	assert.Contains(t, rendered.Question, "Europe")

	notes, err := f.notes.ListNotes(ctx, f.deck.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestNoteService_Errors(t *testing.T) {
	f := newLearnFixture(t)
	ctx := context.Background()

	_, err := f.notes.CreateNote(ctx, f.deck.ID, "flashcard", models.NoteContent{})
	assert.Equal(t, errors.ErrCodeValidation, appCode(t, err))

	_, err = f.notes.CreateNote(ctx, f.deck.ID, models.NoteTypeBasic, models.NoteContent{Back: "no front"})
	assert.Equal(t, errors.ErrCodeValidation, appCode(t, err))

	_, err = f.notes.CreateNote(ctx, "missing", models.NoteTypeBasic, models.NoteContent{Front: "q"})
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	_, err = f.notes.UpdateNote(ctx, "missing", models.NoteContent{Front: "q"})
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	_, err = f.notes.RenderCard(ctx, "missing")
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	_, err = f.notes.ListNotes(ctx, "missing")
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	assert.Len(t, f.notes.NoteTypes(), 5)
}

func TestDeckService(t *testing.T) {
	f := newLearnFixture(t)
	f.seed(t)
	ctx := context.Background()
	decks := services.NewDeckService(f.store, func() time.Time { return f.now })

	_, err := decks.CreateDeck(ctx, "  ", "")
	assert.Equal(t, errors.ErrCodeValidation, appCode(t, err))

	created, err := decks.CreateDeck(ctx, " Anatomy ", "bones")
	require.NoError(t, err)
	assert.Equal(t, "Anatomy", created.Name)
	assert.True(t, created.CreatedAt.Equal(f.now))

	all, err := decks.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anatomy", all[0].Name)

	_, err = decks.GetDeck(ctx, "missing")
	assert.Equal(t, errors.ErrCodeNotFound, appCode(t, err))

	require.NoError(t, f.store.Stats().RecordRating(ctx, f.deck.ID, testutil.Fixed, models.RatingGood))

	overview, err := decks.DeckStats(ctx, f.deck.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Cards["new"])
	assert.Equal(t, 2, overview.Due)
	require.Len(t, overview.Days, 1)
	assert.Equal(t, 1, overview.Days[0].Good)

	_, err = decks.DeckStats(ctx, f.deck.ID, -1)
	assert.Equal(t, errors.ErrCodeValidation, appCode(t, err))
}
