package learn

import (
	"slices"
	"time"

	"github.com/vytor/skola/internal/models"
)

// Comparator orders cards inside the New, ToReview and Learned queues.
type Comparator func(a, b models.Card) int

// Counts is the number of cards waiting in each queue.
type Counts struct {
	New          int `json:"new"`
	TimeCritical int `json:"time_critical"`
	ToReview     int `json:"to_review"`
	Learned      int `json:"learned"`
}

// queues partitions the cards of a session. timeCritical is always sorted by
// ascending due; the other queues keep the comparator order (or insertion
// order when there is none).
type queues struct {
	timeCritical []models.Card
	fresh        []models.Card
	toReview     []models.Card
	learned      []models.Card
	sort         Comparator
}

func (q *queues) empty() bool {
	return len(q.timeCritical)+len(q.fresh)+len(q.toReview)+len(q.learned) == 0
}

func (q *queues) counts() Counts {
	return Counts{
		New:          len(q.fresh),
		TimeCritical: len(q.timeCritical),
		ToReview:     len(q.toReview),
		Learned:      len(q.learned),
	}
}

// build partitions cards evaluated at now. It replaces any previous content.
func (q *queues) build(cards []models.Card, now time.Time) {
	q.timeCritical, q.fresh, q.toReview, q.learned = nil, nil, nil, nil
	for _, c := range cards {
		switch {
		case c.Model.State.TimeCritical():
			q.timeCritical = append(q.timeCritical, c)
		case c.Model.State == models.StateNew:
			q.fresh = append(q.fresh, c)
		case c.Model.State == models.StateReview && !c.Model.Due.After(now):
			q.toReview = append(q.toReview, c)
		case c.Model.State == models.StateReview:
			q.learned = append(q.learned, c)
		}
	}
	sortByDue(q.timeCritical)
	q.sortQueue(q.fresh)
	q.sortQueue(q.toReview)
	q.sortQueue(q.learned)
}

// insert puts card at the front of the queue matching its state and due
// time, then restores that queue's order.
func (q *queues) insert(card models.Card, now time.Time) {
	switch {
	case card.Model.State.TimeCritical():
		q.timeCritical = slices.Insert(q.timeCritical, 0, card)
		sortByDue(q.timeCritical)
	case card.Model.State == models.StateNew:
		q.fresh = slices.Insert(q.fresh, 0, card)
		q.sortQueue(q.fresh)
	case card.Model.State == models.StateReview && !card.Model.Due.After(now):
		q.toReview = slices.Insert(q.toReview, 0, card)
		q.sortQueue(q.toReview)
	case card.Model.State == models.StateReview:
		q.learned = slices.Insert(q.learned, 0, card)
		q.sortQueue(q.learned)
	}
}

// requeue appends card to the time critical queue and re-sorts it.
func (q *queues) requeue(card models.Card) {
	q.timeCritical = append(q.timeCritical, card)
	sortByDue(q.timeCritical)
}

// remove drops every queued copy of the card with the given id.
func (q *queues) remove(id string) {
	match := func(c models.Card) bool { return c.ID == id }
	q.timeCritical = slices.DeleteFunc(q.timeCritical, match)
	q.fresh = slices.DeleteFunc(q.fresh, match)
	q.toReview = slices.DeleteFunc(q.toReview, match)
	q.learned = slices.DeleteFunc(q.learned, match)
}

// next pops the card that should be shown at now, in priority order:
// due time critical cards, then new or due review cards (drawn by ratio),
// then learned cards when learnAll is set, then the remaining time critical
// cards. It reports false when every eligible queue is empty.
func (q *queues) next(now time.Time, opts Options, rnd Random) (models.Card, bool) {
	if len(q.timeCritical) > 0 && !q.timeCritical[0].Model.Due.After(now) {
		return pop(&q.timeCritical), true
	}

	if len(q.fresh)+len(q.toReview) > 0 {
		switch {
		case len(q.fresh) == 0:
			return pop(&q.toReview), true
		case len(q.toReview) == 0:
			return pop(&q.fresh), true
		case rnd.Float64() < opts.NewToReviewRatio:
			return pop(&q.fresh), true
		default:
			return pop(&q.toReview), true
		}
	}

	if opts.LearnAll && len(q.learned) > 0 {
		return pop(&q.learned), true
	}

	if len(q.timeCritical) > 0 {
		return pop(&q.timeCritical), true
	}

	return models.Card{}, false
}

func (q *queues) sortQueue(cards []models.Card) {
	if q.sort != nil {
		slices.SortStableFunc(cards, q.sort)
	}
}

func sortByDue(cards []models.Card) {
	slices.SortStableFunc(cards, ByDue)
}

func pop(queue *[]models.Card) models.Card {
	head := (*queue)[0]
	*queue = (*queue)[1:]
	return head
}
