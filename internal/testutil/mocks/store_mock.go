package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

// MockStore is a mock implementation of repository.Store. Its repositories
// are the mocks in the exported fields; RunInTransaction records the call
// and, unless an error is configured, runs fn against the same store.
type MockStore struct {
	mock.Mock
	CardRepo      *MockCardRepository
	NoteRepo      *MockNoteRepository
	DeckRepo      *MockDeckRepository
	ReviewLogRepo *MockReviewLogRepository
	StatsRepo     *MockStatsRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		CardRepo:      &MockCardRepository{},
		NoteRepo:      &MockNoteRepository{},
		DeckRepo:      &MockDeckRepository{},
		ReviewLogRepo: &MockReviewLogRepository{},
		StatsRepo:     &MockStatsRepository{},
	}
}

func (m *MockStore) Cards() repository.CardRepository           { return m.CardRepo }
func (m *MockStore) Notes() repository.NoteRepository           { return m.NoteRepo }
func (m *MockStore) Decks() repository.DeckRepository           { return m.DeckRepo }
func (m *MockStore) ReviewLogs() repository.ReviewLogRepository { return m.ReviewLogRepo }
func (m *MockStore) Stats() repository.StatsRepository          { return m.StatsRepo }

func (m *MockStore) RunInTransaction(ctx context.Context, tables []string, fn func(repository.Store) error) error {
	args := m.Called(ctx, tables)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

// MockCardRepository is a mock implementation of repository.CardRepository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) Query(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockCardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardRepository) Insert(ctx context.Context, card models.Card) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateModel(ctx context.Context, id string, model models.CardModel) error {
	args := m.Called(ctx, id, model)
	return args.Error(0)
}

func (m *MockCardRepository) UpdateContent(ctx context.Context, id string, content models.CardContent, preview string) error {
	args := m.Called(ctx, id, content, preview)
	return args.Error(0)
}

func (m *MockCardRepository) ListByNote(ctx context.Context, noteID string) ([]models.Card, error) {
	args := m.Called(ctx, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

// MockNoteRepository is a mock implementation of repository.NoteRepository
type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Note), args.Error(1)
}

func (m *MockNoteRepository) Insert(ctx context.Context, note models.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockNoteRepository) UpdateContent(ctx context.Context, id string, content models.NoteContent, updatedAt time.Time) error {
	args := m.Called(ctx, id, content, updatedAt)
	return args.Error(0)
}

func (m *MockNoteRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Note, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Note), args.Error(1)
}

// MockDeckRepository is a mock implementation of repository.DeckRepository
type MockDeckRepository struct {
	mock.Mock
}

func (m *MockDeckRepository) Get(ctx context.Context, id string) (*models.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deck), args.Error(1)
}

func (m *MockDeckRepository) List(ctx context.Context) ([]models.Deck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deck), args.Error(1)
}

func (m *MockDeckRepository) Insert(ctx context.Context, deck models.Deck) error {
	args := m.Called(ctx, deck)
	return args.Error(0)
}

// MockReviewLogRepository is a mock implementation of repository.ReviewLogRepository
type MockReviewLogRepository struct {
	mock.Mock
}

func (m *MockReviewLogRepository) Insert(ctx context.Context, cardID string, log models.ReviewLog) error {
	args := m.Called(ctx, cardID, log)
	return args.Error(0)
}

func (m *MockReviewLogRepository) ListForCard(ctx context.Context, cardID string) ([]models.ReviewLog, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewLog), args.Error(1)
}

// MockStatsRepository is a mock implementation of repository.StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) RecordRating(ctx context.Context, deckID string, at time.Time, rating models.Rating) error {
	args := m.Called(ctx, deckID, at, rating)
	return args.Error(0)
}

func (m *MockStatsRepository) DeckStats(ctx context.Context, deckID string, days int) ([]models.DeckDayStat, error) {
	args := m.Called(ctx, deckID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeckDayStat), args.Error(1)
}
