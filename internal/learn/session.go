// Package learn runs a learning session: it partitions a deck's cards into
// priority queues, picks the next card to show, applies ratings through the
// scheduler and keeps navigation history and statistics.
package learn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
)

var (
	// ErrNoCurrentCard is returned when a card must be rated but none is shown.
	ErrNoCurrentCard = errors.New("learn: no current card")
	// ErrNoOutcomes is returned when the current card has no outcome for the rating.
	ErrNoOutcomes = errors.New("learn: no rating outcomes for current card")
)

// Scheduler computes what each rating would do to a card.
type Scheduler interface {
	Repeat(model models.CardModel, now time.Time) models.RatingOutcomes
	// Refresh runs the end of session housekeeping.
	Refresh(ctx context.Context) error
}

// Recorder persists a rating that was applied to a card. Implementations
// must return without waiting for storage.
type Recorder interface {
	Record(ctx context.Context, card models.Card, outcome models.Outcome)
}

// Random is the source used to interleave new and review cards.
type Random interface {
	Float64() float64
}

// NewRandom returns a Random seeded with seed.
func NewRandom(seed int64) Random {
	return rand.New(rand.NewSource(seed))
}

// Options configure a session and do not change during it.
type Options struct {
	// LearnAll also shows review cards that are not due yet, after everything else.
	LearnAll bool `json:"learn_all"`
	// NewToReviewRatio is the probability of picking a new card over a due
	// review card when both are waiting.
	NewToReviewRatio float64 `json:"new_to_review_ratio"`
	// Sort is applied once when the queues are built.
	Sort Comparator `json:"-"`
}

type Option func(*Session)

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

func WithRandom(r Random) Option {
	return func(s *Session) {
		s.rnd = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, models.Card, models.Outcome) {}

// Session is the state machine of one learning session. It is not safe for
// concurrent use; callers serialize operations.
type Session struct {
	opts      Options
	scheduler Scheduler
	recorder  Recorder
	rnd       Random
	now       func() time.Time
	log       *logger.Logger

	q        queues
	current  *models.Card
	outcomes models.RatingOutcomes

	history  []models.Card
	roster   []models.Card
	inRoster map[string]int

	showingAnswer bool
	finished      bool
	refreshed     bool

	stats  models.Statistics
	drafts *Drafts
}

// NewSession creates an empty session. Cards are supplied with Load.
func NewSession(scheduler Scheduler, opts Options, options ...Option) *Session {
	s := &Session{
		opts:      opts,
		scheduler: scheduler,
		recorder:  noopRecorder{},
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		log:       logger.Default().WithPrefix("learn"),
		q:         queues{sort: opts.Sort},
		inRoster:  make(map[string]int),
		stats:     models.NewStatistics(),
		drafts:    NewDrafts(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Load supplies the session's card snapshot. Every card joins the roster,
// but the queues are only built when nothing has been queued or shown yet,
// so a reload never resets a session in progress. It reports whether the
// queues were built.
func (s *Session) Load(cards []models.Card) bool {
	for _, c := range cards {
		s.addToRoster(c)
	}
	if !s.q.empty() || s.current != nil || s.finished || len(s.history) > 0 {
		s.log.Debug("session already underway, ignoring %d loaded cards for queues", len(cards))
		return false
	}

	s.q.build(cards, s.now())
	c := s.q.counts()
	s.log.Debug("queues built: time_critical=%d, new=%d, to_review=%d, learned=%d",
		c.TimeCritical, c.New, c.ToReview, c.Learned)
	return true
}

// Advance moves to the next card. The current card goes onto the history.
// When no card is left the session finishes and the scheduler is refreshed.
func (s *Session) Advance(ctx context.Context) {
	if s.finished {
		return
	}
	log := logger.FromContext(ctx).WithPrefix("learn")

	if s.current != nil {
		s.history = append(s.history, *s.current)
		s.addToRoster(*s.current)
	}

	now := s.now()
	next, ok := s.q.next(now, s.opts, s.rnd)
	s.showingAnswer = false
	if !ok {
		s.finish(ctx)
		return
	}

	s.addToRoster(next)
	s.setCurrent(next, now)
	log.Debug("advanced to card %s (state=%s)", next.ID, next.Model.State)
}

// GoBack shows the previous card again. The card being left returns to the
// queue its current state and due time belong to. It does nothing when the
// history is empty.
func (s *Session) GoBack() {
	if len(s.history) == 0 {
		return
	}
	now := s.now()

	prev := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	if s.current != nil {
		s.q.remove(s.current.ID)
		s.q.insert(*s.current, now)
	}

	s.finished = false
	s.showingAnswer = false
	s.setCurrent(prev, now)
	s.log.Debug("went back to card %s", prev.ID)
}

// RevealAnswer marks the answer of the current card as shown.
func (s *Session) RevealAnswer() {
	s.showingAnswer = true
}

// Rate applies rating to the current card. Review cards that are not due
// yet are never rescheduled; the rating only counts in the statistics. A
// card whose new interval is zero days is queued again in this session.
func (s *Session) Rate(ctx context.Context, rating models.Rating) error {
	if s.current == nil {
		return ErrNoCurrentCard
	}
	outcome, ok := s.outcomes[rating]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoOutcomes, rating)
	}
	log := logger.FromContext(ctx).WithPrefix("learn")

	now := s.now()
	card := *s.current
	prior := card.Model.State
	notDue := prior == models.StateReview && !card.Model.Due.Before(now)

	if !notDue {
		updated := card
		updated.Model = outcome.Card
		s.recorder.Record(ctx, updated, outcome)
		s.track(updated)
		s.setCurrent(updated, now)
		log.Debug("rated card %s %s: state %s -> %s, scheduled_days=%d",
			card.ID, rating, prior, outcome.Card.State, outcome.Card.ScheduledDays)
	} else {
		log.Debug("rated card %s %s before it was due, model unchanged", card.ID, rating)
	}

	if outcome.Card.ScheduledDays == 0 {
		requeued := card
		requeued.Model = outcome.Card
		s.q.remove(card.ID)
		s.q.requeue(requeued)
	}

	s.stats.Record(prior, rating)
	s.showingAnswer = false
	return nil
}

// SelectDirectly shows card out of order. It is taken out of any queue it
// is waiting in. A card the session already knows is shown with its latest
// model, whatever copy the caller passed.
func (s *Session) SelectDirectly(card models.Card) {
	if i, ok := s.inRoster[card.ID]; ok {
		card = s.roster[i]
	}
	if s.current != nil {
		s.history = append(s.history, *s.current)
	}
	s.q.remove(card.ID)
	s.addToRoster(card)
	s.finished = false
	s.showingAnswer = false
	s.setCurrent(card, s.now())
	s.log.Debug("selected card %s directly", card.ID)
}

func (s *Session) setCurrent(card models.Card, now time.Time) {
	s.current = &card
	s.outcomes = s.scheduler.Repeat(card.Model, now)
}

func (s *Session) finish(ctx context.Context) {
	s.finished = true
	s.current = nil
	s.outcomes = nil

	if s.refreshed {
		return
	}
	s.refreshed = true
	log := logger.FromContext(ctx).WithPrefix("learn")
	log.Info("session finished: %d ratings, accuracy=%.1f", len(s.stats.Ratings), s.stats.Accuracy())
	if err := s.scheduler.Refresh(ctx); err != nil {
		log.Warn("scheduler refresh failed: %v", err)
	}
}

func (s *Session) addToRoster(card models.Card) {
	if _, ok := s.inRoster[card.ID]; ok {
		return
	}
	s.inRoster[card.ID] = len(s.roster)
	s.roster = append(s.roster, card)
}

// track replaces every copy of card held in the roster and the history with
// card, keeping their positions.
func (s *Session) track(card models.Card) {
	if i, ok := s.inRoster[card.ID]; ok {
		s.roster[i] = card
	} else {
		s.addToRoster(card)
	}
	for i := range s.history {
		if s.history[i].ID == card.ID {
			s.history[i] = card
		}
	}
}

func (s *Session) Counts() Counts {
	return s.q.counts()
}

// CurrentCard returns a copy of the card being shown, or nil.
func (s *Session) CurrentCard() *models.Card {
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// CurrentOutcomes previews every rating for the current card.
func (s *Session) CurrentOutcomes() models.RatingOutcomes {
	if s.outcomes == nil {
		return nil
	}
	out := make(models.RatingOutcomes, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

func (s *Session) ShowingAnswer() bool {
	return s.showingAnswer
}

// Roster returns every card the session has seen, each once.
func (s *Session) Roster() []models.Card {
	return append([]models.Card(nil), s.roster...)
}

func (s *Session) History() []models.Card {
	return append([]models.Card(nil), s.history...)
}

func (s *Session) Statistics() models.Statistics {
	return s.stats.Clone()
}

func (s *Session) IsFinished() bool {
	return s.finished
}

func (s *Session) Options() Options {
	return s.opts
}

// Drafts holds the unsubmitted answers typed during this session.
func (s *Session) Drafts() *Drafts {
	return s.drafts
}
