package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/grading"
	"github.com/vytor/skola/internal/jobs"
	"github.com/vytor/skola/internal/learn"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/notetype"
	"github.com/vytor/skola/internal/repository"
)

// Sort orders accepted by StartRequest.
const (
	SortNone     = ""
	SortCreated  = "created"
	SortDue      = "due"
	SortNoteType = "note"
)

type StartRequest struct {
	DeckID           string   `json:"deck_id"`
	LearnAll         bool     `json:"learn_all"`
	NewToReviewRatio *float64 `json:"new_to_review_ratio,omitempty"`
	Sort             string   `json:"sort,omitempty"`
	// Seed makes the new/review interleaving reproducible.
	Seed *int64 `json:"seed,omitempty"`
}

// LearnService runs learning sessions. Calls for the same session are
// serialized; different sessions run independently.
type LearnService interface {
	Start(ctx context.Context, req StartRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	Advance(ctx context.Context, id string) (*SessionView, error)
	GoBack(ctx context.Context, id string) (*SessionView, error)
	Reveal(ctx context.Context, id string) (*SessionView, error)
	Rate(ctx context.Context, id string, rating models.Rating, advance bool) (*SessionView, error)
	Select(ctx context.Context, id string, cardID string) (*SessionView, error)
	Grade(ctx context.Context, id string, input string) (*grading.Result, error)
	SaveDraft(ctx context.Context, id string, cardID string, text string) (*SessionView, error)
	End(ctx context.Context, id string) (*SessionView, error)
}

type LearnConfig struct {
	DefaultNewToReviewRatio float64
	// SessionTTL drops sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration
}

type LearnOption func(*learnService)

// WithLearnClock sets the time source of the service and its sessions.
func WithLearnClock(now func() time.Time) LearnOption {
	return func(s *learnService) {
		s.now = now
	}
}

type learnService struct {
	store     repository.Store
	scheduler learn.Scheduler
	queue     jobs.JobQueue
	registry  *notetype.Registry
	cfg       LearnConfig
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewLearnService creates a new LearnService
func NewLearnService(store repository.Store, scheduler learn.Scheduler, queue jobs.JobQueue, registry *notetype.Registry, cfg LearnConfig, opts ...LearnOption) LearnService {
	s := &learnService{
		store:     store,
		scheduler: scheduler,
		queue:     queue,
		registry:  registry,
		cfg:       cfg,
		now:       time.Now,
		sessions:  make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type liveSession struct {
	mu       sync.Mutex
	id       string
	deckID   string
	session  *learn.Session
	notes    map[string]models.Note
	lastUsed time.Time

	inbox *inbox
}

// queueRecorder hands applied ratings to the job queue. Failures become
// notifications of the owning session.
type queueRecorder struct {
	queue jobs.JobQueue
	inbox *inbox
	now   func() time.Time
}

func (r queueRecorder) Record(ctx context.Context, card models.Card, outcome models.Outcome) {
	log := logger.FromContext(ctx).WithPrefix("learn_service")
	onError := func(err error) {
		r.inbox.push(notificationFor(card, err, r.now()))
	}
	if err := r.queue.EnqueueReview(card, outcome, onError); err != nil {
		log.Warn("failed to enqueue review of card %s: %v", card.ID, err)
		onError(err)
	}
}

func (s *learnService) Start(ctx context.Context, req StartRequest) (*SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("learn_service")
	log.Debug("starting session: deck_id=%s, learn_all=%t, sort=%s", req.DeckID, req.LearnAll, req.Sort)

	s.pruneIdle(ctx)

	if req.DeckID == "" {
		return nil, errors.NewValidationError("deck_id", "is required")
	}
	ratio := s.cfg.DefaultNewToReviewRatio
	if req.NewToReviewRatio != nil {
		ratio = *req.NewToReviewRatio
	}
	if ratio < 0 || ratio > 1 {
		return nil, errors.NewValidationError("new_to_review_ratio", "must be between 0 and 1")
	}

	deck, err := s.store.Decks().Get(ctx, req.DeckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", req.DeckID)
	}

	cards, err := s.store.Cards().Query(ctx, models.CardFilter{DeckID: deck.ID})
	if err != nil {
		log.Error("failed to load cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	notes, err := s.store.Notes().ListByDeck(ctx, deck.ID)
	if err != nil {
		log.Error("failed to load notes: %v", err)
		return nil, errors.NewInternalError(err)
	}
	noteByID := make(map[string]models.Note, len(notes))
	for _, n := range notes {
		noteByID[n.ID] = n
	}

	sortBy, err := s.comparator(req.Sort, noteByID)
	if err != nil {
		return nil, err
	}

	live := &liveSession{
		id:       uuid.NewString(),
		deckID:   deck.ID,
		notes:    noteByID,
		lastUsed: s.now(),
		inbox:    &inbox{},
	}
	options := []learn.Option{
		learn.WithRecorder(queueRecorder{queue: s.queue, inbox: live.inbox, now: s.now}),
		learn.WithClock(s.now),
		learn.WithLogger(logger.Default().WithPrefix("learn").WithField("session_id", live.id)),
	}
	if req.Seed != nil {
		options = append(options, learn.WithRandom(learn.NewRandom(*req.Seed)))
	}
	live.session = learn.NewSession(s.scheduler, learn.Options{
		LearnAll:         req.LearnAll,
		NewToReviewRatio: ratio,
		Sort:             sortBy,
	}, options...)

	live.session.Load(cards)
	live.session.Advance(ctx)

	s.mu.Lock()
	s.sessions[live.id] = live
	s.mu.Unlock()

	log.Info("session started: id=%s, deck_id=%s, cards=%d", live.id, deck.ID, len(cards))
	return s.view(live), nil
}

func (s *learnService) comparator(sortBy string, notes map[string]models.Note) (learn.Comparator, error) {
	switch sortBy {
	case SortNone:
		return nil, nil
	case SortCreated:
		return learn.ByCreationDate, nil
	case SortDue:
		return learn.ByDue, nil
	case SortNoteType:
		return learn.BySortKey(func(c models.Card) string {
			note, ok := notes[c.NoteID]
			if !ok {
				return c.Preview
			}
			a, err := s.registry.Get(note.Type)
			if err != nil {
				return c.Preview
			}
			return a.SortKey(note, c)
		}), nil
	default:
		return nil, errors.NewValidationError("sort", fmt.Sprintf("unknown sort order %q", sortBy))
	}
}

func (s *learnService) Get(ctx context.Context, id string) (*SessionView, error) {
	return s.do(ctx, id, func(*liveSession) error { return nil })
}

func (s *learnService) Advance(ctx context.Context, id string) (*SessionView, error) {
	return s.do(ctx, id, func(ls *liveSession) error {
		ls.session.Advance(ctx)
		return nil
	})
}

func (s *learnService) GoBack(ctx context.Context, id string) (*SessionView, error) {
	return s.do(ctx, id, func(ls *liveSession) error {
		ls.session.GoBack()
		return nil
	})
}

func (s *learnService) Reveal(ctx context.Context, id string) (*SessionView, error) {
	return s.do(ctx, id, func(ls *liveSession) error {
		ls.session.RevealAnswer()
		return nil
	})
}

func (s *learnService) Rate(ctx context.Context, id string, rating models.Rating, advance bool) (*SessionView, error) {
	if !rating.Valid() {
		return nil, errors.NewValidationError("rating", "must be one of again, hard, good, easy")
	}
	return s.do(ctx, id, func(ls *liveSession) error {
		if err := ls.session.Rate(ctx, rating); err != nil {
			return contractError(err)
		}
		if advance {
			ls.session.Advance(ctx)
		}
		return nil
	})
}

func (s *learnService) Select(ctx context.Context, id string, cardID string) (*SessionView, error) {
	return s.do(ctx, id, func(ls *liveSession) error {
		for _, c := range ls.session.Roster() {
			if c.ID == cardID {
				ls.session.SelectDirectly(c)
				return nil
			}
		}

		card, err := s.store.Cards().Get(ctx, cardID)
		if err != nil {
			return errors.NewInternalError(err)
		}
		if card == nil || card.DeckID != ls.deckID {
			return errors.NewNotFoundError("card", cardID)
		}
		if _, ok := ls.notes[card.NoteID]; !ok {
			if note, err := s.store.Notes().Get(ctx, card.NoteID); err == nil && note != nil {
				ls.notes[note.ID] = *note
			}
		}
		ls.session.SelectDirectly(*card)
		return nil
	})
}

func (s *learnService) Grade(ctx context.Context, id string, input string) (*grading.Result, error) {
	var result grading.Result
	_, err := s.do(ctx, id, func(ls *liveSession) error {
		card := ls.session.CurrentCard()
		if card == nil {
			return contractError(learn.ErrNoCurrentCard)
		}
		if card.Content.Type != models.NoteTypeList {
			return errors.NewValidationError("card", fmt.Sprintf("%s cards cannot be graded", card.Content.Type))
		}
		note, err := s.note(ctx, ls, card.NoteID)
		if err != nil {
			return err
		}
		result = grading.Grade(card.Content.ListCardContent(), note.Content.Items, input)
		logger.FromContext(ctx).WithPrefix("learn_service").
			Debug("graded card %s: score=%.2f, suggested=%s", card.ID, result.Score, result.SuggestedRating)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *learnService) SaveDraft(ctx context.Context, id string, cardID string, text string) (*SessionView, error) {
	return s.do(ctx, id, func(ls *liveSession) error {
		if cardID == "" {
			card := ls.session.CurrentCard()
			if card == nil {
				return contractError(learn.ErrNoCurrentCard)
			}
			cardID = card.ID
		}
		ls.session.Drafts().Set(cardID, text)
		return nil
	})
}

func (s *learnService) End(ctx context.Context, id string) (*SessionView, error) {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	logger.FromContext(ctx).WithPrefix("learn_service").Info("session ended: id=%s, ratings=%d", id, len(ls.session.Statistics().Ratings))
	return s.view(ls), nil
}

// do runs fn on session id under its lock and returns the resulting view.
func (s *learnService) do(ctx context.Context, id string, fn func(*liveSession) error) (*SessionView, error) {
	s.mu.Lock()
	ls, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.lastUsed = s.now()

	if err := fn(ls); err != nil {
		logger.FromContext(ctx).WithPrefix("learn_service").Debug("session %s operation failed: %v", id, err)
		return nil, err
	}
	return s.view(ls), nil
}

func (s *learnService) note(ctx context.Context, ls *liveSession, noteID string) (models.Note, error) {
	if n, ok := ls.notes[noteID]; ok {
		return n, nil
	}
	n, err := s.store.Notes().Get(ctx, noteID)
	if err != nil {
		return models.Note{}, errors.NewInternalError(err)
	}
	if n == nil {
		return models.Note{}, errors.NewNotFoundError("note", noteID)
	}
	ls.notes[noteID] = *n
	return *n, nil
}

func (s *learnService) pruneIdle(ctx context.Context) {
	if s.cfg.SessionTTL <= 0 {
		return
	}
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ls := range s.sessions {
		if !ls.mu.TryLock() {
			continue
		}
		idle := ls.lastUsed.Before(cutoff)
		ls.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			logger.FromContext(ctx).WithPrefix("learn_service").Info("dropped idle session %s", id)
		}
	}
}

func contractError(err error) error {
	switch {
	case stderrors.Is(err, learn.ErrNoCurrentCard):
		return errors.NewConflictError("no card is being shown", err)
	case stderrors.Is(err, learn.ErrNoOutcomes):
		return errors.NewConflictError("the current card has no outcome for this rating", err)
	default:
		return errors.NewInternalError(err)
	}
}
