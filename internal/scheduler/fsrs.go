// Package scheduler adapts the FSRS spaced repetition algorithm to the
// card models used by learning sessions.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
)

// Params are the tunable scheduler parameters.
type Params struct {
	RequestRetention float64 `toml:"request_retention"`
	MaximumInterval  float64 `toml:"maximum_interval"`
}

// DefaultParams returns the FSRS defaults.
func DefaultParams() Params {
	d := fsrs.DefaultParam()
	return Params{
		RequestRetention: d.RequestRetention,
		MaximumInterval:  d.MaximumInterval,
	}
}

func (p Params) Validate() error {
	if p.RequestRetention <= 0 || p.RequestRetention >= 1 {
		return fmt.Errorf("request_retention must be between 0 and 1, got %v", p.RequestRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("maximum_interval must be at least 1 day, got %v", p.MaximumInterval)
	}
	return nil
}

// ParamSource supplies scheduler parameters.
type ParamSource interface {
	Load(ctx context.Context) (Params, error)
}

// StaticParams is a ParamSource that never changes.
type StaticParams Params

func (s StaticParams) Load(context.Context) (Params, error) {
	return Params(s), nil
}

// FSRS computes rating outcomes with go-fsrs. Refresh reloads its
// parameters from the source; it is safe for concurrent use.
type FSRS struct {
	mu     sync.RWMutex
	params fsrs.Parameters
	source ParamSource
	log    *logger.Logger
}

// New creates a scheduler with the parameters currently offered by source.
func New(ctx context.Context, source ParamSource) (*FSRS, error) {
	f := &FSRS{
		params: fsrs.DefaultParam(),
		source: source,
		log:    logger.Default().WithPrefix("scheduler"),
	}
	if err := f.Refresh(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Repeat previews all four ratings for model at now.
func (f *FSRS) Repeat(model models.CardModel, now time.Time) models.RatingOutcomes {
	f.mu.RLock()
	p := f.params
	f.mu.RUnlock()

	record := p.Repeat(toFSRS(model), now)
	out := make(models.RatingOutcomes, len(record))
	for rating, info := range record {
		out[models.Rating(rating)] = models.Outcome{
			Card: fromFSRS(info.Card),
			Log:  fromFSRSLog(info.ReviewLog),
		}
	}
	return out
}

// Refresh reloads the parameters from the source.
func (f *FSRS) Refresh(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("scheduler")

	params, err := f.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load scheduler params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid scheduler params: %w", err)
	}

	f.mu.Lock()
	f.params.RequestRetention = params.RequestRetention
	f.params.MaximumInterval = params.MaximumInterval
	f.mu.Unlock()

	log.Debug("scheduler params refreshed: request_retention=%.2f, maximum_interval=%.0f",
		params.RequestRetention, params.MaximumInterval)
	return nil
}

// Params returns the parameters in use.
func (f *FSRS) Params() Params {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Params{
		RequestRetention: f.params.RequestRetention,
		MaximumInterval:  f.params.MaximumInterval,
	}
}

func toFSRS(m models.CardModel) fsrs.Card {
	return fsrs.Card{
		Due:           m.Due,
		Stability:     m.Stability,
		Difficulty:    m.Difficulty,
		ElapsedDays:   m.ElapsedDays,
		ScheduledDays: m.ScheduledDays,
		Reps:          m.Reps,
		Lapses:        m.Lapses,
		State:         fsrs.State(m.State),
		LastReview:    m.LastReview,
	}
}

func fromFSRS(c fsrs.Card) models.CardModel {
	return models.CardModel{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   c.ElapsedDays,
		ScheduledDays: c.ScheduledDays,
		Reps:          c.Reps,
		Lapses:        c.Lapses,
		State:         models.State(c.State),
		LastReview:    c.LastReview,
	}
}

func fromFSRSLog(l fsrs.ReviewLog) models.ReviewLog {
	return models.ReviewLog{
		Rating:        models.Rating(l.Rating),
		State:         models.State(l.State),
		ScheduledDays: l.ScheduledDays,
		ElapsedDays:   l.ElapsedDays,
		Review:        l.Review,
	}
}
