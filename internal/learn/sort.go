package learn

import (
	"strings"

	"github.com/vytor/skola/internal/models"
)

// ByCreationDate orders cards from oldest to newest.
func ByCreationDate(a, b models.Card) int {
	return a.CreatedAt.Compare(b.CreatedAt)
}

// ByDue orders cards by ascending due time.
func ByDue(a, b models.Card) int {
	return a.Model.Due.Compare(b.Model.Due)
}

// BySortKey orders cards by a key derived from each card, typically the
// note type's sort key.
func BySortKey(key func(models.Card) string) Comparator {
	return func(a, b models.Card) int {
		return strings.Compare(key(a), key(b))
	}
}
