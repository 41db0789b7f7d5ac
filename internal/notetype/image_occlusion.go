package notetype

import (
	"strings"

	"github.com/vytor/skola/internal/models"
)

// imageOcclusion produces one card per hidden region of an image.
type imageOcclusion struct{}

func (imageOcclusion) prepare(env Env, c models.NoteContent) (models.NoteContent, error) {
	if strings.TrimSpace(c.ImageURL) == "" {
		return c, invalid("image url cannot be empty")
	}
	if len(c.Regions) == 0 {
		return c, invalid("image occlusion needs at least one region")
	}

	seen := make(map[string]bool, len(c.Regions))
	regions := make([]models.OcclusionRegion, len(c.Regions))
	for i, r := range c.Regions {
		if r.Width <= 0 || r.Height <= 0 {
			return c, invalid("region %d has no area", i+1)
		}
		if r.X < 0 || r.Y < 0 || r.X+r.Width > 1 || r.Y+r.Height > 1 {
			return c, invalid("region %d lies outside the image", i+1)
		}
		if r.ID == "" {
			r.ID = env.NewID()
		}
		if seen[r.ID] {
			return c, invalid("duplicate region id %q", r.ID)
		}
		seen[r.ID] = true
		regions[i] = r
	}
	return models.NoteContent{ImageURL: c.ImageURL, Regions: regions}, nil
}

func (imageOcclusion) cards(c models.NoteContent) []models.CardContent {
	out := make([]models.CardContent, len(c.Regions))
	for i, r := range c.Regions {
		out[i] = models.CardContent{Type: models.NoteTypeImageOcclusion, RegionID: r.ID}
	}
	return out
}

func (imageOcclusion) key(cc models.CardContent) string { return cc.RegionID }

func (o imageOcclusion) preview(c models.NoteContent, cc models.CardContent) string {
	if r, ok := o.region(c, cc.RegionID); ok && r.Label != "" {
		return PreviewText(r.Label)
	}
	return "Image occlusion"
}

func (o imageOcclusion) render(c models.NoteContent, cc models.CardContent) Rendered {
	r, _ := o.region(c, cc.RegionID)
	return Rendered{
		Question: "What is hidden?",
		Answer:   r.Label,
		ImageURL: c.ImageURL,
		Regions:  c.Regions,
		Hidden:   cc.RegionID,
	}
}

func (o imageOcclusion) sortKey(c models.NoteContent, cc models.CardContent) string {
	return c.ImageURL + "#" + strings.ToLower(o.preview(c, cc))
}

func (imageOcclusion) region(c models.NoteContent, id string) (models.OcclusionRegion, bool) {
	for _, r := range c.Regions {
		if r.ID == id {
			return r, true
		}
	}
	return models.OcclusionRegion{}, false
}
