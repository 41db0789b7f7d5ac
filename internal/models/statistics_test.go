package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/skola/internal/models"
)

func TestStatistics_Record(t *testing.T) {
	stats := models.NewStatistics()
	stats.Record(models.StateNew, models.RatingGood)
	stats.Record(models.StateNew, models.RatingAgain)
	stats.Record(models.StateLearning, models.RatingEasy)

	assert.Equal(t, 2, stats.Cards[models.StateNew])
	assert.Equal(t, 1, stats.Cards[models.StateLearning])
	assert.Equal(t, 0, stats.Cards[models.StateReview])
	assert.Equal(t, []models.Rating{models.RatingGood, models.RatingAgain, models.RatingEasy}, stats.Ratings)
}

func TestStatistics_CloneIsIndependent(t *testing.T) {
	stats := models.NewStatistics()
	stats.Record(models.StateReview, models.RatingHard)

	clone := stats.Clone()
	stats.Record(models.StateReview, models.RatingGood)

	assert.Equal(t, 1, clone.Cards[models.StateReview])
	assert.Len(t, clone.Ratings, 1)
}

func TestStatistics_Accuracy(t *testing.T) {
	tests := []struct {
		name    string
		ratings []models.Rating
		want    float64
	}{
		{name: "all again", ratings: []models.Rating{models.RatingAgain, models.RatingAgain}, want: 0},
		{name: "all good", ratings: []models.Rating{models.RatingGood}, want: 100},
		{name: "all easy", ratings: []models.Rating{models.RatingEasy}, want: 150},
		{name: "mixed", ratings: []models.Rating{models.RatingAgain, models.RatingHard, models.RatingGood}, want: 50},
		{name: "rounded", ratings: []models.Rating{models.RatingHard, models.RatingGood, models.RatingGood}, want: 83.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := models.NewStatistics()
			for _, r := range tt.ratings {
				stats.Record(models.StateNew, r)
			}
			assert.InDelta(t, tt.want, stats.Accuracy(), 1e-9)
		})
	}
}

func TestStatistics_AccuracyWithoutRatings(t *testing.T) {
	stats := models.NewStatistics()
	assert.True(t, math.IsNaN(stats.Accuracy()))
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want models.Rating
	}{
		{"again", models.RatingAgain},
		{"Hard", models.RatingHard},
		{" good ", models.RatingGood},
		{"4", models.RatingEasy},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := models.ParseRating(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := models.ParseRating("perfect")
	assert.Error(t, err)
}

func TestState_TimeCritical(t *testing.T) {
	assert.True(t, models.StateLearning.TimeCritical())
	assert.True(t, models.StateRelearning.TimeCritical())
	assert.False(t, models.StateNew.TimeCritical())
	assert.False(t, models.StateReview.TimeCritical())
}
