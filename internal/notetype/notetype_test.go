package notetype_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/notetype"
	"github.com/vytor/skola/internal/repository"
	"github.com/vytor/skola/internal/repository/sqlite"
	"github.com/vytor/skola/internal/testutil"
)

func setup(t *testing.T) (*notetype.Registry, repository.Store, models.Deck) {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	store := sqlite.NewStore(db)
	deck := models.Deck{ID: "deck-1", Name: "Geography", CreatedAt: testutil.Fixed}
	require.NoError(t, store.Decks().Insert(context.Background(), deck))

	n := 0
	reg := notetype.NewRegistry(notetype.Env{
		Now:   func() time.Time { return testutil.Fixed },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	return reg, store, deck
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := notetype.DefaultRegistry()
	_, err := reg.Get("flashcard")
	assert.ErrorIs(t, err, notetype.ErrUnknownNoteType)

	assert.Equal(t, []models.NoteType{
		models.NoteTypeBasic,
		models.NoteTypeCloze,
		models.NoteTypeDoubleSided,
		models.NoteTypeImageOcclusion,
		models.NoteTypeList,
	}, reg.Types())
}

func TestBasic_CreateAndRender(t *testing.T) {
	reg, store, deck := setup(t)
	ctx := context.Background()
	a, err := reg.Get(models.NoteTypeBasic)
	require.NoError(t, err)

	note, cards, err := a.CreateNote(ctx, store, deck, models.NoteContent{Front: "<b>Capital</b> of France?", Back: "Paris"})
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, models.NoteTypeBasic, note.Type)
	assert.Equal(t, "Capital of France?", cards[0].Preview)
	assert.Equal(t, models.StateNew, cards[0].Model.State)
	assert.True(t, cards[0].Model.Due.Equal(testutil.Fixed))

	stored, err := store.Cards().ListByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, cards[0].ID, stored[0].ID)

	r := a.Render(note, cards[0])
	assert.Equal(t, "Paris", r.Answer)
}

func TestCreate_RejectsInvalidContent(t *testing.T) {
	reg, store, deck := setup(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		typ     models.NoteType
		content models.NoteContent
	}{
		{"basic without front", models.NoteTypeBasic, models.NoteContent{Back: "x"}},
		{"double sided without back", models.NoteTypeDoubleSided, models.NoteContent{Front: "x"}},
		{"cloze without deletion", models.NoteTypeCloze, models.NoteContent{Text: "plain text"}},
		{"list without items", models.NoteTypeList, models.NoteContent{PromptHTML: "Name them"}},
		{"list with bad order", models.NoteTypeList, models.NoteContent{PromptHTML: "p", Items: []models.ListItem{{Text: "a"}}, Order: "random"}},
		{"occlusion without regions", models.NoteTypeImageOcclusion, models.NoteContent{ImageURL: "map.png"}},
		{"occlusion outside image", models.NoteTypeImageOcclusion, models.NoteContent{ImageURL: "map.png", Regions: []models.OcclusionRegion{{X: 0.8, Y: 0, Width: 0.5, Height: 0.1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := reg.Get(tc.typ)
			require.NoError(t, err)
			_, _, err = a.CreateNote(ctx, store, deck, tc.content)
			assert.ErrorIs(t, err, notetype.ErrInvalidContent)
		})
	}

	notes, err := store.Notes().ListByDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestCreate_UnknownDeckRollsBack(t *testing.T) {
	reg, store, _ := setup(t)
	ctx := context.Background()
	a, err := reg.Get(models.NoteTypeBasic)
	require.NoError(t, err)

	_, _, err = a.CreateNote(ctx, store, models.Deck{ID: "missing"}, models.NoteContent{Front: "q", Back: "a"})
	assert.ErrorIs(t, err, notetype.ErrDeckNotFound)

	cards, err := store.Cards().Query(ctx, models.CardFilter{})
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestDoubleSided_TwoCards(t *testing.T) {
	reg, store, deck := setup(t)
	a, err := reg.Get(models.NoteTypeDoubleSided)
	require.NoError(t, err)

	note, cards, err := a.CreateNote(context.Background(), store, deck, models.NoteContent{Front: "chien", Back: "dog"})
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.False(t, cards[0].Content.Reverse)
	assert.True(t, cards[1].Content.Reverse)
	assert.Equal(t, "chien", cards[0].Preview)
	assert.Equal(t, "dog", cards[1].Preview)

	r := a.Render(note, cards[1])
	assert.Equal(t, "dog", r.Question)
	assert.Equal(t, "chien", r.Answer)
}

func TestCloze_CardPerIndex(t *testing.T) {
	reg, store, deck := setup(t)
	a, err := reg.Get(models.NoteTypeCloze)
	require.NoError(t, err)

	text := "{{c2::Paris}} is the capital of {{c1::France::country}}, home of {{c2::the Louvre}}"
	assert.Equal(t, []int{1, 2}, notetype.ClozeIndices(text))

	note, cards, err := a.CreateNote(context.Background(), store, deck, models.NoteContent{Text: text})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, 1, cards[0].Content.ClozeIndex)
	assert.Equal(t, 2, cards[1].Content.ClozeIndex)

	r1 := a.Render(note, cards[0])
	assert.Equal(t, "Paris is the capital of [country], home of the Louvre", r1.Question)
	assert.Equal(t, "Paris is the capital of France, home of the Louvre", r1.Answer)

	r2 := a.Render(note, cards[1])
	assert.Equal(t, "[...] is the capital of France, home of [...]", r2.Question)
	assert.Equal(t, "[...] is the capital of France, home of [...]", cards[1].Preview)
}

func TestCloze_UpdateAddsNewIndicesAndKeepsModels(t *testing.T) {
	reg, store, deck := setup(t)
	ctx := context.Background()
	a, err := reg.Get(models.NoteTypeCloze)
	require.NoError(t, err)

	note, cards, err := a.CreateNote(ctx, store, deck, models.NoteContent{Text: "{{c1::Paris}} is in France"})
	require.NoError(t, err)
	require.Len(t, cards, 1)

	reviewed := models.CardModel{State: models.StateReview, Due: testutil.Fixed.Add(72 * time.Hour), ScheduledDays: 3, Reps: 2}
	require.NoError(t, store.Cards().UpdateModel(ctx, cards[0].ID, reviewed))

	err = a.UpdateNote(ctx, store, note, models.NoteContent{Text: "{{c1::Paris}} is in {{c2::France}}"})
	require.NoError(t, err)

	after, err := store.Cards().ListByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, after, 2)

	byIndex := map[int]models.Card{}
	for _, c := range after {
		byIndex[c.Content.ClozeIndex] = c
	}
	assert.Equal(t, cards[0].ID, byIndex[1].ID)
	assert.Equal(t, models.StateReview, byIndex[1].Model.State)
	assert.Equal(t, uint64(2), byIndex[1].Model.Reps)
	assert.Equal(t, "[...] is in France", byIndex[1].Preview)
	assert.Equal(t, models.StateNew, byIndex[2].Model.State)
	assert.Equal(t, "Paris is in [...]", byIndex[2].Preview)

	stored, err := store.Notes().Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "{{c1::Paris}} is in {{c2::France}}", stored.Content.Text)
}

func TestUpdate_TypeMismatch(t *testing.T) {
	reg, store, deck := setup(t)
	ctx := context.Background()
	basic, err := reg.Get(models.NoteTypeBasic)
	require.NoError(t, err)
	list, err := reg.Get(models.NoteTypeList)
	require.NoError(t, err)

	note, _, err := basic.CreateNote(ctx, store, deck, models.NoteContent{Front: "q"})
	require.NoError(t, err)

	err = list.UpdateNote(ctx, store, note, models.NoteContent{PromptHTML: "p", Items: []models.ListItem{{Text: "a"}}})
	assert.ErrorIs(t, err, notetype.ErrTypeMismatch)
}

func TestList_CardCarriesOrderAndGrading(t *testing.T) {
	reg, store, deck := setup(t)
	ctx := context.Background()
	a, err := reg.Get(models.NoteTypeList)
	require.NoError(t, err)

	content := models.NoteContent{
		PromptHTML: "<p>Planets closest to the sun</p>",
		Items:      []models.ListItem{{Text: "Mercury"}, {Text: "Venus", Aliases: []string{"", "Morning star"}}},
		Order:      models.ListOrdered,
		Grading:    &models.GradingConfig{Normalize: models.NormalizeAggressive},
	}
	note, cards, err := a.CreateNote(ctx, store, deck, content)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	assert.Equal(t, []string{"Morning star"}, note.Content.Items[1].Aliases)
	assert.Equal(t, "Planets closest to the sun", cards[0].Preview)

	lc := cards[0].Content.ListCardContent()
	assert.Equal(t, models.ListOrdered, lc.Order)
	assert.Equal(t, models.NormalizeAggressive, lc.Grading.Normalize)

	r := a.Render(note, cards[0])
	assert.Equal(t, []string{"Mercury", "Venus"}, r.Items)
	assert.True(t, r.Ordered)

	// Updating keeps the card and its model but carries the new configuration.
	require.NoError(t, store.Cards().UpdateModel(ctx, cards[0].ID, models.CardModel{State: models.StateReview, Due: testutil.Fixed.Add(48 * time.Hour), Reps: 3}))
	content.Items = append(content.Items, models.ListItem{Text: "Earth"})
	content.Order = models.ListUnordered
	content.Grading = &models.GradingConfig{Normalize: models.NormalizeBasic}
	content.PromptHTML = "<p>Inner planets</p>"
	require.NoError(t, a.UpdateNote(ctx, store, note, content))

	after, err := store.Cards().ListByNote(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, cards[0].ID, after[0].ID)
	assert.Equal(t, uint64(3), after[0].Model.Reps)
	assert.Equal(t, "Inner planets", after[0].Preview)
	lc = after[0].Content.ListCardContent()
	assert.Equal(t, models.ListUnordered, lc.Order)
	assert.Equal(t, models.NormalizeBasic, lc.Grading.Normalize)
}

func TestList_DefaultsToUnordered(t *testing.T) {
	reg, store, deck := setup(t)
	a, err := reg.Get(models.NoteTypeList)
	require.NoError(t, err)

	_, cards, err := a.CreateNote(context.Background(), store, deck, models.NoteContent{
		PromptHTML: "Primary colours",
		Items:      []models.ListItem{{Text: "red"}, {Text: "green"}, {Text: "blue"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListUnordered, cards[0].Content.Order)
	assert.Nil(t, cards[0].Content.Grading)
}

func TestImageOcclusion_CardPerRegion(t *testing.T) {
	reg, store, deck := setup(t)
	a, err := reg.Get(models.NoteTypeImageOcclusion)
	require.NoError(t, err)

	note, cards, err := a.CreateNote(context.Background(), store, deck, models.NoteContent{
		ImageURL: "europe.png",
		Regions: []models.OcclusionRegion{
			{ID: "fr", Label: "France", X: 0.2, Y: 0.5, Width: 0.1, Height: 0.1},
			{Label: "Spain", X: 0.1, Y: 0.7, Width: 0.1, Height: 0.1},
		},
	})
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "fr", cards[0].Content.RegionID)
	assert.NotEmpty(t, cards[1].Content.RegionID)
	assert.Equal(t, "France", cards[0].Preview)
	assert.Equal(t, "Spain", cards[1].Preview)

	r := a.Render(note, cards[1])
	assert.Equal(t, "Spain", r.Answer)
	assert.Equal(t, cards[1].Content.RegionID, r.Hidden)
	assert.Len(t, r.Regions, 2)
}

func TestImageOcclusion_DuplicateRegionIDs(t *testing.T) {
	reg, store, deck := setup(t)
	a, err := reg.Get(models.NoteTypeImageOcclusion)
	require.NoError(t, err)

	_, _, err = a.CreateNote(context.Background(), store, deck, models.NoteContent{
		ImageURL: "europe.png",
		Regions: []models.OcclusionRegion{
			{ID: "x", X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1},
			{ID: "x", X: 0.3, Y: 0.3, Width: 0.1, Height: 0.1},
		},
	})
	assert.ErrorIs(t, err, notetype.ErrInvalidContent)
}

func TestSortKey(t *testing.T) {
	reg := notetype.DefaultRegistry()
	a, err := reg.Get(models.NoteTypeCloze)
	require.NoError(t, err)

	note := models.Note{Type: models.NoteTypeCloze, Content: models.NoteContent{Text: "{{c1::B}} then {{c2::A}}"}}
	k1 := a.SortKey(note, models.Card{Content: models.CardContent{ClozeIndex: 1}})
	k2 := a.SortKey(note, models.Card{Content: models.CardContent{ClozeIndex: 2}})
	assert.Less(t, k1, k2)
}

func TestPreviewText(t *testing.T) {
	assert.Equal(t, "Fish & chips", notetype.PreviewText("<p>Fish &amp;   chips</p>"))
	assert.Equal(t, "a b", notetype.PreviewText("a<br/>b"))

	long := ""
	for i := 0; i < 50; i++ {
		long += "word "
	}
	p := notetype.PreviewText(long)
	assert.LessOrEqual(t, len([]rune(p)), 120)
	assert.True(t, len(p) > 0)
}
