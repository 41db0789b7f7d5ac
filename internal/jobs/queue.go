package jobs

import "github.com/vytor/skola/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueReview schedules the persistence of an applied rating.
	// onError is called if the write later fails.
	EnqueueReview(card models.Card, outcome models.Outcome, onError func(error)) error
}
