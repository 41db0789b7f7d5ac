package learn_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/learn"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/testutil/mocks"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeScheduler returns fixed intervals per rating: Again and Hard keep the
// card in learning with a zero day interval, Good and Easy graduate it.
type fakeScheduler struct {
	refreshes  int
	refreshErr error
}

func (f *fakeScheduler) Repeat(m models.CardModel, now time.Time) models.RatingOutcomes {
	learning := models.StateLearning
	if m.State == models.StateReview {
		learning = models.StateRelearning
	}
	mk := func(r models.Rating, state models.State, days uint64, in time.Duration) models.Outcome {
		next := m
		next.State = state
		next.ScheduledDays = days
		next.Due = now.Add(in)
		next.Reps = m.Reps + 1
		next.LastReview = now
		return models.Outcome{
			Card: next,
			Log:  models.ReviewLog{Rating: r, State: m.State, ScheduledDays: days, Review: now},
		}
	}
	return models.RatingOutcomes{
		models.RatingAgain: mk(models.RatingAgain, learning, 0, time.Minute),
		models.RatingHard:  mk(models.RatingHard, learning, 0, 5*time.Minute),
		models.RatingGood:  mk(models.RatingGood, models.StateReview, 1, 24*time.Hour),
		models.RatingEasy:  mk(models.RatingEasy, models.StateReview, 4, 96*time.Hour),
	}
}

func (f *fakeScheduler) Refresh(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func card(id string, state models.State, due time.Time) models.Card {
	return models.Card{
		ID:        id,
		DeckID:    "deck",
		NoteID:    "note-" + id,
		Model:     models.CardModel{State: state, Due: due},
		CreatedAt: base,
	}
}

// mixedDeck has two cards in every queue.
func mixedDeck() []models.Card {
	return []models.Card{
		card("new1", models.StateNew, base),
		card("new2", models.StateNew, base),
		card("learning1", models.StateLearning, base.Add(-time.Minute)),
		card("relearning1", models.StateRelearning, base.Add(10*time.Minute)),
		card("review-due1", models.StateReview, base.Add(-24*time.Hour)),
		card("review-due2", models.StateReview, base),
		card("learned1", models.StateReview, base.Add(24*time.Hour)),
		card("learned2", models.StateReview, base.Add(48*time.Hour)),
	}
}

func newSession(t *testing.T, opts learn.Options, extra ...learn.Option) (*learn.Session, *fakeScheduler, *clock) {
	t.Helper()
	sched := &fakeScheduler{}
	clk := &clock{now: base}
	options := append([]learn.Option{learn.WithClock(clk.Now), learn.WithRandom(fixedRandom(0.5))}, extra...)
	return learn.NewSession(sched, opts, options...), sched, clk
}

func drain(t *testing.T, s *learn.Session) []string {
	t.Helper()
	var seen []string
	for i := 0; i < 100 && !s.IsFinished(); i++ {
		s.Advance(context.Background())
		if c := s.CurrentCard(); c != nil {
			seen = append(seen, c.ID)
		}
	}
	require.True(t, s.IsFinished(), "session did not finish")
	return seen
}

func ids(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestLoad_PartitionsCards(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})

	require.True(t, s.Load(mixedDeck()))

	assert.Equal(t, learn.Counts{New: 2, TimeCritical: 2, ToReview: 2, Learned: 2}, s.Counts())
	assert.Nil(t, s.CurrentCard())
	assert.Len(t, s.Roster(), 8)
}

func TestLoad_BuildsOnlyOnce(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	require.True(t, s.Load(mixedDeck()))
	s.Advance(context.Background())

	extra := card("late", models.StateNew, base)
	built := s.Load(append(mixedDeck(), extra))

	assert.False(t, built)
	assert.Equal(t, 7, sumCounts(s.Counts()))
	assert.Contains(t, ids(s.Roster()), "late")
	assert.Len(t, s.Roster(), 9)
}

func sumCounts(c learn.Counts) int {
	return c.New + c.TimeCritical + c.ToReview + c.Learned
}

func TestAdvance_LearnAllVisitsEveryCardOnce(t *testing.T) {
	s, sched, _ := newSession(t, learn.Options{LearnAll: true, NewToReviewRatio: 0.5})
	s.Load(mixedDeck())

	seen := drain(t, s)

	expected := ids(mixedDeck())
	sort.Strings(expected)
	sorted := append([]string(nil), seen...)
	sort.Strings(sorted)
	assert.Equal(t, expected, sorted)
	assert.Len(t, s.Roster(), len(expected))
	assert.Len(t, s.History(), len(expected))
	assert.Equal(t, 1, sched.refreshes)
}

func TestAdvance_WithoutLearnAllSkipsLearnedCards(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{NewToReviewRatio: 0.5})
	s.Load(mixedDeck())

	seen := drain(t, s)

	assert.NotContains(t, seen, "learned1")
	assert.NotContains(t, seen, "learned2")
	assert.Len(t, seen, 6)
	assert.Equal(t, 2, s.Counts().Learned)
}

func TestAdvance_SelectionPriority(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{LearnAll: true, NewToReviewRatio: 1})
	s.Load(mixedDeck())

	seen := drain(t, s)

	// learning1 is overdue, new cards always win with ratio 1, learned cards
	// come next and the not yet due relearning card is drained last.
	assert.Equal(t, []string{
		"learning1",
		"new1", "new2",
		"review-due1", "review-due2",
		"learned1", "learned2",
		"relearning1",
	}, seen)
}

func TestAdvance_RatioZeroNeverPicksNewWhileReviewsWait(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		sched := &fakeScheduler{}
		s := learn.NewSession(sched, learn.Options{NewToReviewRatio: 0},
			learn.WithClock(func() time.Time { return base }),
			learn.WithRandom(learn.NewRandom(seed)),
		)
		s.Load([]models.Card{
			card("n1", models.StateNew, base),
			card("r1", models.StateReview, base.Add(-time.Hour)),
		})

		s.Advance(context.Background())
		require.NotNil(t, s.CurrentCard())
		assert.Equal(t, "r1", s.CurrentCard().ID, "seed %d", seed)
	}
}

func TestAdvance_RatioUsesRandomDraw(t *testing.T) {
	cards := []models.Card{
		card("n1", models.StateNew, base),
		card("r1", models.StateReview, base.Add(-time.Hour)),
	}

	below, _, _ := newSession(t, learn.Options{NewToReviewRatio: 0.3}, learn.WithRandom(fixedRandom(0.2)))
	below.Load(cards)
	below.Advance(context.Background())
	assert.Equal(t, "n1", below.CurrentCard().ID)

	above, _, _ := newSession(t, learn.Options{NewToReviewRatio: 0.3}, learn.WithRandom(fixedRandom(0.3)))
	above.Load(cards)
	above.Advance(context.Background())
	assert.Equal(t, "r1", above.CurrentCard().ID)
}

func TestAdvance_TimeCriticalBecomesDue(t *testing.T) {
	s, _, clk := newSession(t, learn.Options{NewToReviewRatio: 1})
	s.Load([]models.Card{
		card("n1", models.StateNew, base),
		card("n2", models.StateNew, base),
		card("l1", models.StateLearning, base.Add(5*time.Minute)),
	})

	s.Advance(context.Background())
	assert.Equal(t, "n1", s.CurrentCard().ID)

	clk.now = base.Add(6 * time.Minute)
	s.Advance(context.Background())
	assert.Equal(t, "l1", s.CurrentCard().ID)
}

func TestAdvance_SortAppliedOnce(t *testing.T) {
	older := card("older", models.StateNew, base)
	older.CreatedAt = base.Add(-time.Hour)
	newer := card("newer", models.StateNew, base)

	s, _, _ := newSession(t, learn.Options{Sort: learn.ByCreationDate})
	s.Load([]models.Card{newer, older})
	s.Advance(context.Background())

	assert.Equal(t, "older", s.CurrentCard().ID)
}

func TestAdvance_FinishRefreshesOnce(t *testing.T) {
	s, sched, _ := newSession(t, learn.Options{})
	s.Load([]models.Card{card("n1", models.StateNew, base)})

	s.Advance(context.Background())
	s.Advance(context.Background())
	s.Advance(context.Background())

	assert.True(t, s.IsFinished())
	assert.Nil(t, s.CurrentCard())
	assert.Nil(t, s.CurrentOutcomes())
	assert.Equal(t, 1, sched.refreshes)

	s.GoBack()
	assert.False(t, s.IsFinished())
	s.Advance(context.Background())
	assert.True(t, s.IsFinished())
	assert.Equal(t, 1, sched.refreshes)
}

func TestAdvance_RefreshErrorIsNotFatal(t *testing.T) {
	sched := &fakeScheduler{refreshErr: errors.New("params unavailable")}
	s := learn.NewSession(sched, learn.Options{}, learn.WithClock(func() time.Time { return base }))
	s.Load(nil)

	s.Advance(context.Background())

	assert.True(t, s.IsFinished())
	assert.Equal(t, 1, sched.refreshes)
}

func TestAdvance_ClearsShowingAnswer(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	s.Load(mixedDeck())
	s.Advance(context.Background())

	s.RevealAnswer()
	s.RevealAnswer()
	assert.True(t, s.ShowingAnswer())

	s.Advance(context.Background())
	assert.False(t, s.ShowingAnswer())
}

func TestGoBack_RestoresPreviousCard(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{NewToReviewRatio: 1})
	s.Load([]models.Card{
		card("n1", models.StateNew, base),
		card("n2", models.StateNew, base),
		card("n3", models.StateNew, base),
	})
	s.Advance(context.Background())
	s.Advance(context.Background())
	require.Equal(t, "n2", s.CurrentCard().ID)
	require.Len(t, s.History(), 1)

	s.RevealAnswer()
	s.GoBack()

	assert.Equal(t, "n1", s.CurrentCard().ID)
	assert.Empty(t, s.History())
	assert.False(t, s.ShowingAnswer())
	assert.Equal(t, 2, s.Counts().New)

	// n2 went back to the front of the new queue.
	s.Advance(context.Background())
	assert.Equal(t, "n2", s.CurrentCard().ID)
}

func TestGoBack_EmptyHistoryIsNoop(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	s.Load(mixedDeck())
	s.Advance(context.Background())
	before := s.CurrentCard()
	counts := s.Counts()

	s.GoBack()

	assert.Equal(t, before, s.CurrentCard())
	assert.Equal(t, counts, s.Counts())
	assert.Empty(t, s.History())
}

func TestGoBack_RequeuesByCurrentState(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{NewToReviewRatio: 1})
	s.Load([]models.Card{
		card("n1", models.StateNew, base),
		card("n2", models.StateNew, base),
	})
	s.Advance(context.Background())
	s.Advance(context.Background())

	// n2 becomes a learning card with a zero day interval.
	require.NoError(t, s.Rate(context.Background(), models.RatingAgain))
	require.Equal(t, 1, s.Counts().TimeCritical)

	s.GoBack()

	assert.Equal(t, "n1", s.CurrentCard().ID)
	assert.Equal(t, learn.Counts{TimeCritical: 1}, s.Counts())
}

func TestRate_AppliesOutcome(t *testing.T) {
	rec := new(mocks.MockRecorder)
	s, _, _ := newSession(t, learn.Options{}, learn.WithRecorder(rec))
	s.Load([]models.Card{card("r1", models.StateReview, base.Add(-time.Hour))})
	s.Advance(context.Background())
	want := s.CurrentOutcomes()[models.RatingGood]

	rec.On("Record", mock.Anything, mock.MatchedBy(func(c models.Card) bool {
		return c.ID == "r1" && c.Model == want.Card
	}), want).Return().Once()

	require.NoError(t, s.Rate(context.Background(), models.RatingGood))

	rec.AssertExpectations(t)
	assert.Equal(t, want.Card, s.CurrentCard().Model)
	assert.Equal(t, 0, s.Counts().TimeCritical)
	stats := s.Statistics()
	assert.Equal(t, 1, stats.Cards[models.StateReview])
	assert.Equal(t, []models.Rating{models.RatingGood}, stats.Ratings)
}

func TestRate_NotDueReviewCardIsUnchanged(t *testing.T) {
	rec := new(mocks.MockRecorder)
	s, _, _ := newSession(t, learn.Options{LearnAll: true}, learn.WithRecorder(rec))
	learned := card("learned1", models.StateReview, base.Add(48*time.Hour))
	learned.Model.Stability = 12.5
	s.Load([]models.Card{learned})
	s.Advance(context.Background())
	require.Equal(t, "learned1", s.CurrentCard().ID)

	require.NoError(t, s.Rate(context.Background(), models.RatingEasy))

	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, learned.Model, s.CurrentCard().Model)
	assert.Equal(t, []models.Rating{models.RatingEasy}, s.Statistics().Ratings)
	assert.Equal(t, 1, s.Statistics().Cards[models.StateReview])
}

func TestSelectDirectly_UsesLatestModelOfRatedCard(t *testing.T) {
	s, _, clk := newSession(t, learn.Options{NewToReviewRatio: 1})
	n1 := card("n1", models.StateNew, base)
	s.Load([]models.Card{n1, card("n2", models.StateNew, base)})
	s.Advance(context.Background())
	require.Equal(t, "n1", s.CurrentCard().ID)
	require.NoError(t, s.Rate(context.Background(), models.RatingGood))
	s.Advance(context.Background())
	require.Equal(t, "n2", s.CurrentCard().ID)

	roster := s.Roster()
	require.Equal(t, "n1", roster[0].ID)
	assert.Equal(t, models.StateReview, roster[0].Model.State)
	assert.Equal(t, uint64(1), roster[0].Model.Reps)
	assert.Equal(t, roster[0], s.History()[0])

	// n1 is due again; the stale snapshot passed in must not win.
	clk.now = base.Add(48 * time.Hour)
	s.SelectDirectly(n1)
	require.Equal(t, models.StateReview, s.CurrentCard().Model.State)
	require.NoError(t, s.Rate(context.Background(), models.RatingGood))

	assert.Equal(t, uint64(2), s.CurrentCard().Model.Reps)
	assert.Equal(t, uint64(2), s.Roster()[0].Model.Reps)
	assert.Equal(t, uint64(2), s.History()[0].Model.Reps)
}

func TestRate_ZeroDayIntervalRequeues(t *testing.T) {
	s, _, clk := newSession(t, learn.Options{NewToReviewRatio: 1})
	s.Load([]models.Card{
		card("n1", models.StateNew, base),
		card("l1", models.StateLearning, base.Add(3*time.Minute)),
	})
	s.Advance(context.Background())
	require.Equal(t, "n1", s.CurrentCard().ID)

	require.NoError(t, s.Rate(context.Background(), models.RatingAgain))
	assert.Equal(t, 2, s.Counts().TimeCritical)
	assert.Equal(t, models.StateLearning, s.CurrentCard().Model.State)

	// n1 is due one minute from now, before l1.
	clk.now = base.Add(2 * time.Minute)
	s.Advance(context.Background())
	assert.Equal(t, "n1", s.CurrentCard().ID)
	assert.Equal(t, base.Add(time.Minute), s.CurrentCard().Model.Due)
}

func TestRate_RecomputesOutcomesForUpdatedModel(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	s.Load([]models.Card{card("n1", models.StateNew, base)})
	s.Advance(context.Background())

	require.NoError(t, s.Rate(context.Background(), models.RatingGood))

	outcomes := s.CurrentOutcomes()
	assert.Equal(t, models.StateRelearning, outcomes[models.RatingAgain].Card.State)
	assert.Equal(t, uint64(2), outcomes[models.RatingGood].Card.Reps)
}

func TestRate_ContractViolations(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})

	err := s.Rate(context.Background(), models.RatingGood)
	assert.ErrorIs(t, err, learn.ErrNoCurrentCard)

	s.Load([]models.Card{card("n1", models.StateNew, base)})
	s.Advance(context.Background())
	err = s.Rate(context.Background(), models.Rating(9))
	assert.ErrorIs(t, err, learn.ErrNoOutcomes)
	assert.Empty(t, s.Statistics().Ratings)
}

func TestSelectDirectly(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{NewToReviewRatio: 1})
	s.Load(mixedDeck())
	s.Advance(context.Background())
	first := s.CurrentCard().ID

	target := card("review-due2", models.StateReview, base)
	s.RevealAnswer()
	s.SelectDirectly(target)

	assert.Equal(t, "review-due2", s.CurrentCard().ID)
	assert.Equal(t, []string{first}, ids(s.History()))
	assert.Equal(t, 1, s.Counts().ToReview)
	assert.False(t, s.ShowingAnswer())
	assert.NotNil(t, s.CurrentOutcomes())
}

func TestSelectDirectly_CardNotInAnyQueue(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	s.Load(mixedDeck())
	before := s.Counts()

	s.SelectDirectly(card("outsider", models.StateNew, base))

	assert.Equal(t, "outsider", s.CurrentCard().ID)
	assert.Empty(t, s.History())
	assert.Equal(t, before, s.Counts())
	assert.Contains(t, ids(s.Roster()), "outsider")
}

func TestDrafts(t *testing.T) {
	s, _, _ := newSession(t, learn.Options{})
	d := s.Drafts()

	d.Set("c1", "alpha\nbeta")
	text, ok := d.Get("c1")
	assert.True(t, ok)
	assert.Equal(t, "alpha\nbeta", text)

	d.Set("c1", "")
	_, ok = d.Get("c1")
	assert.False(t, ok)

	d.Set("c2", "x")
	d.Clear("c2")
	assert.Equal(t, 0, d.Len())
}
