package notetype

import (
	"strings"

	"github.com/vytor/skola/internal/models"
)

// list has a single card asking to recall every item.
type list struct{}

func (list) prepare(_ Env, c models.NoteContent) (models.NoteContent, error) {
	if strings.TrimSpace(c.PromptHTML) == "" {
		return c, invalid("prompt cannot be empty")
	}
	if len(c.Items) == 0 {
		return c, invalid("list needs at least one item")
	}
	items := make([]models.ListItem, len(c.Items))
	for i, it := range c.Items {
		if strings.TrimSpace(it.Text) == "" {
			return c, invalid("item %d is empty", i+1)
		}
		items[i] = models.ListItem{Text: it.Text}
		for _, a := range it.Aliases {
			if strings.TrimSpace(a) != "" {
				items[i].Aliases = append(items[i].Aliases, a)
			}
		}
	}

	order := c.Order
	switch order {
	case "":
		order = models.ListUnordered
	case models.ListOrdered, models.ListUnordered:
	default:
		return c, invalid("unknown order %q", order)
	}

	var grading *models.GradingConfig
	if c.Grading != nil {
		g := *c.Grading
		switch g.OrderedMode {
		case "", models.OrderedStrictPosition, models.OrderedLCS:
		default:
			return c, invalid("unknown ordered mode %q", g.OrderedMode)
		}
		switch g.Normalize {
		case "", models.NormalizeBasic, models.NormalizeAggressive:
		default:
			return c, invalid("unknown normalize mode %q", g.Normalize)
		}
		grading = &g
	}

	return models.NoteContent{PromptHTML: c.PromptHTML, Items: items, Order: order, Grading: grading}, nil
}

func (list) cards(c models.NoteContent) []models.CardContent {
	return []models.CardContent{{Type: models.NoteTypeList, Order: c.Order, Grading: c.Grading}}
}

func (list) key(models.CardContent) string { return "list" }

func (list) preview(c models.NoteContent, _ models.CardContent) string {
	return PreviewText(c.PromptHTML)
}

func (list) render(c models.NoteContent, cc models.CardContent) Rendered {
	items := make([]string, len(c.Items))
	for i, it := range c.Items {
		items[i] = it.Text
	}
	return Rendered{
		Question: c.PromptHTML,
		Answer:   strings.Join(items, "\n"),
		Items:    items,
		Ordered:  cc.Order == models.ListOrdered,
	}
}

func (list) sortKey(c models.NoteContent, _ models.CardContent) string {
	return strings.ToLower(PreviewText(c.PromptHTML))
}
