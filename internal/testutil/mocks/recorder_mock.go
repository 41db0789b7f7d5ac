package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/skola/internal/models"
)

// MockRecorder is a mock implementation of learn.Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, card models.Card, outcome models.Outcome) {
	m.Called(ctx, card, outcome)
}
