package jobs

import (
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
	"github.com/vytor/skola/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	persistPool *worker.Pool
	store       repository.Store
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(persistPool *worker.Pool, store repository.Store) JobQueue {
	return &WorkerQueue{
		persistPool: persistPool,
		store:       store,
	}
}

func (q *WorkerQueue) EnqueueReview(card models.Card, outcome models.Outcome, onError func(error)) error {
	return q.persistPool.Submit(&worker.PersistReviewJob{
		Store:   q.store,
		Card:    card,
		Outcome: outcome,
		OnError: onError,
	})
}
