package models

import "math"

// Statistics accumulates the ratings given during one learning session.
type Statistics struct {
	// Cards counts ratings by the state the card was in before it was rated.
	Cards   map[State]int `json:"cards"`
	Ratings []Rating      `json:"ratings"`
}

func NewStatistics() Statistics {
	return Statistics{
		Cards: map[State]int{
			StateNew:        0,
			StateLearning:   0,
			StateReview:     0,
			StateRelearning: 0,
		},
	}
}

// Record adds one rating given to a card that was in state prior.
func (s *Statistics) Record(prior State, r Rating) {
	if s.Cards == nil {
		s.Cards = make(map[State]int)
	}
	s.Cards[prior]++
	s.Ratings = append(s.Ratings, r)
}

// Clone returns a copy that does not share storage with s.
func (s Statistics) Clone() Statistics {
	out := Statistics{Cards: make(map[State]int, len(s.Cards))}
	for k, v := range s.Cards {
		out.Cards[k] = v
	}
	out.Ratings = append([]Rating(nil), s.Ratings...)
	return out
}

// Accuracy maps Again..Easy onto 0..150% and averages it, rounded to one
// decimal. It is NaN when nothing was rated.
func (s Statistics) Accuracy() float64 {
	if len(s.Ratings) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, r := range s.Ratings {
		sum += float64(r-1) / 2
	}
	return math.Round(sum/float64(len(s.Ratings))*1000) / 10
}

// DeckDayStat is the persisted per-deck, per-day rating tally.
type DeckDayStat struct {
	DeckID  string `json:"deck_id"`
	Day     string `json:"day"`
	Reviews int    `json:"reviews"`
	Again   int    `json:"again"`
	Hard    int    `json:"hard"`
	Good    int    `json:"good"`
	Easy    int    `json:"easy"`
}
