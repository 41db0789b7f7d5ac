package services

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/vytor/skola/internal/learn"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/notetype"
)

// SessionView is the state of a learning session as shown to a client.
type SessionView struct {
	ID             string                    `json:"id"`
	DeckID         string                    `json:"deck_id"`
	Counts         learn.Counts              `json:"counts"`
	Current        *models.Card              `json:"current,omitempty"`
	Rendered       *notetype.Rendered        `json:"rendered,omitempty"`
	Outcomes       map[string]models.Outcome `json:"outcomes,omitempty"`
	ShowingAnswer  bool                      `json:"showing_answer"`
	Finished       bool                      `json:"finished"`
	Statistics     StatisticsView            `json:"statistics"`
	History        []CardSummary             `json:"history"`
	Cards          []CardSummary             `json:"cards"`
	Draft          string                    `json:"draft,omitempty"`
	Notifications  []Notification            `json:"notifications,omitempty"`
	LearnAll       bool                      `json:"learn_all"`
	NewReviewRatio float64                   `json:"new_to_review_ratio"`
}

// CardSummary is a card as listed in the session overview, for picking a
// card out of order.
type CardSummary struct {
	ID      string    `json:"id"`
	Preview string    `json:"preview"`
	State   string    `json:"state"`
	Due     time.Time `json:"due"`
}

func summarize(cards []models.Card) []CardSummary {
	out := make([]CardSummary, len(cards))
	for i, c := range cards {
		out[i] = CardSummary{ID: c.ID, Preview: c.Preview, State: c.Model.State.String(), Due: c.Model.Due}
	}
	return out
}

type StatisticsView struct {
	Cards   map[string]int `json:"cards"`
	Ratings []string       `json:"ratings"`
	// Accuracy is nil until something is rated.
	Accuracy *float64 `json:"accuracy"`
}

// Notification reports a background failure, such as a review that could
// not be saved.
type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	CardID  string    `json:"card_id,omitempty"`
	At      time.Time `json:"at"`
}

// inbox collects notifications from worker goroutines until the next view
// drains them.
type inbox struct {
	mu    sync.Mutex
	items []Notification
}

func (b *inbox) push(n Notification) {
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}

func (b *inbox) drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

func notificationFor(card models.Card, err error, at time.Time) Notification {
	return Notification{
		Level:   "error",
		Message: fmt.Sprintf("failed to save review of %q: %v", card.Preview, err),
		CardID:  card.ID,
		At:      at.UTC(),
	}
}

func newStatisticsView(stats models.Statistics) StatisticsView {
	v := StatisticsView{
		Cards:   make(map[string]int, len(stats.Cards)),
		Ratings: make([]string, 0, len(stats.Ratings)),
	}
	for state, n := range stats.Cards {
		v.Cards[state.String()] = n
	}
	for _, r := range stats.Ratings {
		v.Ratings = append(v.Ratings, r.String())
	}
	if acc := stats.Accuracy(); !math.IsNaN(acc) {
		v.Accuracy = &acc
	}
	return v
}

// view must be called with ls.mu held.
func (s *learnService) view(ls *liveSession) *SessionView {
	sess := ls.session
	opts := sess.Options()
	v := &SessionView{
		ID:             ls.id,
		DeckID:         ls.deckID,
		Counts:         sess.Counts(),
		ShowingAnswer:  sess.ShowingAnswer(),
		Finished:       sess.IsFinished(),
		Statistics:     newStatisticsView(sess.Statistics()),
		History:        summarize(sess.History()),
		Cards:          summarize(sess.Roster()),
		Notifications:  ls.inbox.drain(),
		LearnAll:       opts.LearnAll,
		NewReviewRatio: opts.NewToReviewRatio,
	}

	card := sess.CurrentCard()
	if card == nil {
		return v
	}
	v.Current = card
	if draft, ok := sess.Drafts().Get(card.ID); ok {
		v.Draft = draft
	}
	if outcomes := sess.CurrentOutcomes(); len(outcomes) > 0 {
		v.Outcomes = make(map[string]models.Outcome, len(outcomes))
		for r, o := range outcomes {
			v.Outcomes[r.String()] = o
		}
	}

	note, ok := ls.notes[card.NoteID]
	if !ok {
		return v
	}
	a, err := s.registry.Get(note.Type)
	if err != nil {
		return v
	}
	rendered := a.Render(note, *card)
	if !v.ShowingAnswer {
		rendered.Answer = ""
		rendered.Items = nil
	}
	v.Rendered = &rendered
	return v
}
