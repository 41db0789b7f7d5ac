package notetype

import (
	"strings"

	"github.com/vytor/skola/internal/models"
)

// basic has one card showing the front and asking for the back.
type basic struct{}

func (basic) prepare(_ Env, c models.NoteContent) (models.NoteContent, error) {
	if strings.TrimSpace(c.Front) == "" {
		return c, invalid("front cannot be empty")
	}
	return models.NoteContent{Front: c.Front, Back: c.Back}, nil
}

func (basic) cards(models.NoteContent) []models.CardContent {
	return []models.CardContent{{Type: models.NoteTypeBasic}}
}

func (basic) key(models.CardContent) string { return "basic" }

func (basic) preview(c models.NoteContent, _ models.CardContent) string {
	return PreviewText(c.Front)
}

func (basic) render(c models.NoteContent, _ models.CardContent) Rendered {
	return Rendered{Question: c.Front, Answer: c.Back}
}

func (basic) sortKey(c models.NoteContent, _ models.CardContent) string {
	return strings.ToLower(PreviewText(c.Front))
}

// doubleSided asks front to back and back to front.
type doubleSided struct{}

func (doubleSided) prepare(_ Env, c models.NoteContent) (models.NoteContent, error) {
	if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
		return c, invalid("front and back cannot be empty")
	}
	return models.NoteContent{Front: c.Front, Back: c.Back}, nil
}

func (doubleSided) cards(models.NoteContent) []models.CardContent {
	return []models.CardContent{
		{Type: models.NoteTypeDoubleSided},
		{Type: models.NoteTypeDoubleSided, Reverse: true},
	}
}

func (doubleSided) key(cc models.CardContent) string {
	if cc.Reverse {
		return "reverse"
	}
	return "front"
}

func (doubleSided) preview(c models.NoteContent, cc models.CardContent) string {
	if cc.Reverse {
		return PreviewText(c.Back)
	}
	return PreviewText(c.Front)
}

func (doubleSided) render(c models.NoteContent, cc models.CardContent) Rendered {
	if cc.Reverse {
		return Rendered{Question: c.Back, Answer: c.Front}
	}
	return Rendered{Question: c.Front, Answer: c.Back}
}

func (d doubleSided) sortKey(c models.NoteContent, cc models.CardContent) string {
	return strings.ToLower(d.preview(c, cc))
}
