package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/skola/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueReview(card models.Card, outcome models.Outcome, onError func(error)) error {
	args := m.Called(card, outcome, onError)
	return args.Error(0)
}
