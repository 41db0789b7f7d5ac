package models

import (
	"fmt"
	"strings"
	"time"
)

// State is the scheduling phase of a card.
type State int

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateLearning:
		return "learning"
	case StateReview:
		return "review"
	case StateRelearning:
		return "relearning"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TimeCritical reports whether cards in this state are re-shown within the same session.
func (s State) TimeCritical() bool {
	return s == StateLearning || s == StateRelearning
}

// Rating is the recall quality a user reports for a card.
type Rating int

const (
	RatingAgain Rating = iota + 1
	RatingHard
	RatingGood
	RatingEasy
)

// Ratings lists every valid rating in ascending order.
var Ratings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingGood:
		return "good"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("rating(%d)", int(r))
	}
}

func (r Rating) Valid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rating) UnmarshalText(b []byte) error {
	v, err := ParseRating(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRating accepts a rating name ("good") or its number ("3").
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again", "1":
		return RatingAgain, nil
	case "hard", "2":
		return RatingHard, nil
	case "good", "3":
		return RatingGood, nil
	case "easy", "4":
		return RatingEasy, nil
	}
	return 0, fmt.Errorf("unknown rating %q", s)
}

// CardModel is the scheduling state of a card. Only State, Due and
// ScheduledDays are interpreted outside the scheduler.
type CardModel struct {
	Due           time.Time `json:"due"`
	Stability     float64   `json:"stability"`
	Difficulty    float64   `json:"difficulty"`
	ElapsedDays   uint64    `json:"elapsed_days"`
	ScheduledDays uint64    `json:"scheduled_days"`
	Reps          uint64    `json:"reps"`
	Lapses        uint64    `json:"lapses"`
	State         State     `json:"state"`
	LastReview    time.Time `json:"last_review"`
}

// NewCardModel returns the model of a card that has never been reviewed.
func NewCardModel(now time.Time) CardModel {
	return CardModel{Due: now, State: StateNew}
}

type Card struct {
	ID        string      `json:"id"`
	NoteID    string      `json:"note_id"`
	DeckID    string      `json:"deck_id"`
	Model     CardModel   `json:"model"`
	Content   CardContent `json:"content"`
	Preview   string      `json:"preview"`
	CreatedAt time.Time   `json:"created_at"`
}

// CardContent is the type-specific part of a card. Which fields are set
// depends on Type.
type CardContent struct {
	Type NoteType `json:"type"`

	// List
	Order   ListOrder      `json:"order,omitempty"`
	Grading *GradingConfig `json:"grading,omitempty"`

	// Cloze
	ClozeIndex int `json:"cloze_index,omitempty"`

	// DoubleSided
	Reverse bool `json:"reverse,omitempty"`

	// ImageOcclusion
	RegionID string `json:"region_id,omitempty"`
}

// ListCardContent is the grading configuration of a list card.
func (c CardContent) ListCardContent() ListCardContent {
	lc := ListCardContent{Order: c.Order}
	if c.Grading != nil {
		lc.Grading = *c.Grading
	}
	return lc
}

type CardFilter struct {
	DeckID    string
	NoteID    string
	IDs       []string
	States    []State
	DueBefore *time.Time
	Limit     int
}

// ReviewLog records one rating applied to a card.
type ReviewLog struct {
	Rating        Rating    `json:"rating"`
	State         State     `json:"state"`
	ScheduledDays uint64    `json:"scheduled_days"`
	ElapsedDays   uint64    `json:"elapsed_days"`
	Review        time.Time `json:"review"`
}

// Outcome is what a rating would do to a card.
type Outcome struct {
	Card CardModel `json:"card"`
	Log  ReviewLog `json:"review_log"`
}

type RatingOutcomes map[Rating]Outcome
