// Package grading scores a free-text list recall against the expected items
// of a list note and suggests a rating for it.
package grading

import (
	"regexp"
	"strings"

	"github.com/vytor/skola/internal/models"
)

// Result is the outcome of grading one recall attempt.
type Result struct {
	// Score is in [0, 1].
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Extras  []string `json:"extras"`
	// WrongPosition holds indices into Matched of items recalled at the wrong
	// position. Only set for ordered lists.
	WrongPosition   []int         `json:"wrong_position,omitempty"`
	SuggestedRating models.Rating `json:"suggested_rating"`
}

var (
	whitespaceRe = regexp.MustCompile(`[\s\p{Zs}]+`)
	trailingRe   = regexp.MustCompile(`[.,;:!?]+$`)
)

// Normalize prepares text for comparison. Basic mode trims, lowercases and
// collapses whitespace; aggressive mode also strips trailing punctuation.
func Normalize(text string, mode models.NormalizeMode) string {
	n := strings.ToLower(strings.TrimSpace(text))
	n = whitespaceRe.ReplaceAllString(n, " ")
	if mode == models.NormalizeAggressive {
		n = trailingRe.ReplaceAllString(n, "")
	}
	return n
}

// ParseInput splits user input into one item per non-empty line.
func ParseInput(input string) []string {
	var out []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SuggestRating maps a score onto a rating. The suggestion is advisory.
func SuggestRating(score float64) models.Rating {
	switch {
	case score < 0.4:
		return models.RatingAgain
	case score < 0.7:
		return models.RatingHard
	case score < 0.9:
		return models.RatingGood
	default:
		return models.RatingEasy
	}
}

// Grade compares input against items using the card's order and grading
// configuration. Any input is accepted; empty input scores 0.
func Grade(cfg models.ListCardContent, items []models.ListItem, input string) Result {
	userItems := ParseInput(input)
	mode := cfg.Grading.Normalize
	if mode == "" {
		mode = models.NormalizeBasic
	}

	if cfg.Order == models.ListUnordered {
		return gradeUnordered(items, userItems, mode)
	}

	switch cfg.Grading.OrderedMode {
	case models.OrderedLCS:
		// TODO: implement longest-common-subsequence scoring; lcs grades like strict-position until then.
		return gradeOrderedStrict(items, userItems, mode)
	default:
		return gradeOrderedStrict(items, userItems, mode)
	}
}

func gradeUnordered(items []models.ListItem, userItems []string, mode models.NormalizeMode) Result {
	accepted := make([]map[string]struct{}, len(items))
	for i, item := range items {
		set := map[string]struct{}{Normalize(item.Text, mode): {}}
		for _, alias := range item.Aliases {
			set[Normalize(alias, mode)] = struct{}{}
		}
		accepted[i] = set
	}

	res := newResult()
	consumed := make([]bool, len(items))
	for _, line := range userItems {
		n := Normalize(line, mode)
		idx := -1
		for i := range items {
			if consumed[i] {
				continue
			}
			if _, ok := accepted[i][n]; ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			res.Extras = append(res.Extras, line)
			continue
		}
		consumed[idx] = true
		res.Matched = append(res.Matched, items[idx].Text)
	}

	for i, item := range items {
		if !consumed[i] {
			res.Missing = append(res.Missing, item.Text)
		}
	}

	res.Score = ratio(len(res.Matched), len(items))
	res.SuggestedRating = SuggestRating(res.Score)
	return res
}

func gradeOrderedStrict(items []models.ListItem, userItems []string, mode models.NormalizeMode) Result {
	expected := make([]string, len(items))
	for i, item := range items {
		expected[i] = Normalize(item.Text, mode)
	}

	res := newResult()
	res.WrongPosition = []int{}
	consumed := make([]bool, len(items))
	correct := 0

	for i := 0; i < max(len(items), len(userItems)); i++ {
		hasExpected := i < len(items)
		hasUser := i < len(userItems)

		switch {
		case hasExpected && hasUser:
			n := Normalize(userItems[i], mode)
			if n == expected[i] {
				res.Matched = append(res.Matched, items[i].Text)
				consumed[i] = true
				correct++
				continue
			}
			found := -1
			for j, e := range expected {
				if e == n && !consumed[j] {
					found = j
					break
				}
			}
			if found < 0 {
				res.Extras = append(res.Extras, userItems[i])
				continue
			}
			res.Matched = append(res.Matched, items[found].Text)
			res.WrongPosition = append(res.WrongPosition, len(res.Matched)-1)
			consumed[found] = true
		case hasUser:
			res.Extras = append(res.Extras, userItems[i])
		}
	}

	for i, item := range items {
		if !consumed[i] {
			res.Missing = append(res.Missing, item.Text)
		}
	}

	// Wrong-position matches are shown as matched but do not score.
	res.Score = ratio(correct, len(items))
	res.SuggestedRating = SuggestRating(res.Score)
	return res
}

func newResult() Result {
	return Result{
		Matched: []string{},
		Missing: []string{},
		Extras:  []string{},
	}
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
