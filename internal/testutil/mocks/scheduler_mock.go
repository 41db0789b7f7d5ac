package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skola/internal/models"
)

// MockScheduler is a mock implementation of learn.Scheduler
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Repeat(model models.CardModel, now time.Time) models.RatingOutcomes {
	args := m.Called(model, now)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(models.RatingOutcomes)
}

func (m *MockScheduler) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
