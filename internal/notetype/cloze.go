package notetype

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/skola/internal/models"
)

// {{c1::answer}} or {{c1::answer::hint}}
var clozePattern = regexp.MustCompile(`\{\{c(\d+)::(.+?)(?:::(.+?))?\}\}`)

// cloze produces one card per deletion index.
type cloze struct{}

// ClozeIndices returns the distinct deletion indices in text, ascending.
func ClozeIndices(text string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range clozePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (cloze) prepare(_ Env, c models.NoteContent) (models.NoteContent, error) {
	if len(ClozeIndices(c.Text)) == 0 {
		return c, invalid("text has no cloze deletion")
	}
	return models.NoteContent{Text: c.Text, Back: c.Back}, nil
}

func (cloze) cards(c models.NoteContent) []models.CardContent {
	indices := ClozeIndices(c.Text)
	out := make([]models.CardContent, len(indices))
	for i, n := range indices {
		out[i] = models.CardContent{Type: models.NoteTypeCloze, ClozeIndex: n}
	}
	return out
}

func (cloze) key(cc models.CardContent) string {
	return fmt.Sprintf("c%d", cc.ClozeIndex)
}

func (z cloze) preview(c models.NoteContent, cc models.CardContent) string {
	return PreviewText(z.question(c.Text, cc.ClozeIndex))
}

func (z cloze) render(c models.NoteContent, cc models.CardContent) Rendered {
	return Rendered{
		Question: z.question(c.Text, cc.ClozeIndex),
		Answer:   z.answer(c.Text),
	}
}

func (z cloze) sortKey(c models.NoteContent, cc models.CardContent) string {
	return fmt.Sprintf("%s#%03d", strings.ToLower(PreviewText(z.answer(c.Text))), cc.ClozeIndex)
}

// question hides deletion index and reveals the others.
func (cloze) question(text string, index int) string {
	return clozePattern.ReplaceAllStringFunc(text, func(s string) string {
		m := clozePattern.FindStringSubmatch(s)
		n, _ := strconv.Atoi(m[1])
		if n != index {
			return m[2]
		}
		if m[3] != "" {
			return "[" + m[3] + "]"
		}
		return "[...]"
	})
}

func (cloze) answer(text string) string {
	return clozePattern.ReplaceAllString(text, "$2")
}
