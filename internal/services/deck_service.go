package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

// DeckOverview summarizes a deck's cards and its recent review activity.
type DeckOverview struct {
	Deck models.Deck `json:"deck"`
	// Cards counts cards by state name.
	Cards map[string]int `json:"cards"`
	// Due counts cards whose due time has passed.
	Due  int                  `json:"due"`
	Days []models.DeckDayStat `json:"days"`
}

// DeckService handles deck-related business logic
type DeckService interface {
	CreateDeck(ctx context.Context, name, description string) (*models.Deck, error)
	GetDeck(ctx context.Context, id string) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.Deck, error)
	DeckStats(ctx context.Context, id string, days int) (*DeckOverview, error)
}

type deckService struct {
	store repository.Store
	now   func() time.Time
}

// NewDeckService creates a new DeckService. now defaults to time.Now.
func NewDeckService(store repository.Store, now func() time.Time) DeckService {
	if now == nil {
		now = time.Now
	}
	return &deckService{store: store, now: now}
}

func (s *deckService) CreateDeck(ctx context.Context, name, description string) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}
	deck := models.Deck{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Decks().Insert(ctx, deck); err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("deck created: id=%s, name=%q", deck.ID, deck.Name)
	return &deck, nil
}

func (s *deckService) GetDeck(ctx context.Context, id string) (*models.Deck, error) {
	deck, err := s.store.Decks().Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	decks, err := s.store.Decks().List(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) DeckStats(ctx context.Context, id string, days int) (*DeckOverview, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting deck stats: deck_id=%s, days=%d", id, days)

	if days < 0 {
		return nil, errors.NewValidationError("days", "must not be negative")
	}
	deck, err := s.GetDeck(ctx, id)
	if err != nil {
		return nil, err
	}

	cards, err := s.store.Cards().Query(ctx, models.CardFilter{DeckID: id})
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	dayStats, err := s.store.Stats().DeckStats(ctx, id, days)
	if err != nil {
		log.Error("failed to get deck stats: %v", err)
		return nil, errors.NewInternalError(err)
	}

	overview := &DeckOverview{
		Deck:  *deck,
		Cards: make(map[string]int),
		Days:  dayStats,
	}
	now := s.now()
	for _, c := range cards {
		overview.Cards[c.Model.State.String()]++
		if !c.Model.Due.After(now) {
			overview.Due++
		}
	}
	return overview, nil
}
