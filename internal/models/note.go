package models

import "time"

// NoteType tags the variant of a note and of the cards generated from it.
type NoteType string

const (
	NoteTypeBasic          NoteType = "basic"
	NoteTypeCloze          NoteType = "cloze"
	NoteTypeList           NoteType = "list"
	NoteTypeDoubleSided    NoteType = "double_sided"
	NoteTypeImageOcclusion NoteType = "image_occlusion"
)

type Note struct {
	ID        string      `json:"id"`
	DeckID    string      `json:"deck_id"`
	Type      NoteType    `json:"type"`
	Content   NoteContent `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NoteContent holds the authored content of every note type. Only the
// fields of the note's own type are populated.
type NoteContent struct {
	// Basic, DoubleSided
	Front string `json:"front,omitempty"`
	Back  string `json:"back,omitempty"`

	// Cloze
	Text string `json:"text,omitempty"`

	// List
	PromptHTML string         `json:"prompt_html,omitempty"`
	Items      []ListItem     `json:"items,omitempty"`
	Order      ListOrder      `json:"order,omitempty"`
	Grading    *GradingConfig `json:"grading,omitempty"` // copied onto the card at creation

	// ImageOcclusion
	ImageURL string            `json:"image_url,omitempty"`
	Regions  []OcclusionRegion `json:"regions,omitempty"`
}

type ListItem struct {
	Text    string   `json:"text"`
	Aliases []string `json:"aliases,omitempty"`
}

type ListOrder string

const (
	ListUnordered ListOrder = "unordered"
	ListOrdered   ListOrder = "ordered"
)

type OrderedMode string

const (
	OrderedStrictPosition OrderedMode = "strict-position"
	OrderedLCS            OrderedMode = "lcs"
)

type NormalizeMode string

const (
	NormalizeBasic      NormalizeMode = "basic"
	NormalizeAggressive NormalizeMode = "aggressive"
)

type GradingConfig struct {
	OrderedMode OrderedMode   `json:"ordered_mode,omitempty"`
	Normalize   NormalizeMode `json:"normalize,omitempty"`
}

// ListCardContent is the card-side configuration used to grade a list recall.
type ListCardContent struct {
	Order   ListOrder
	Grading GradingConfig
}

// OcclusionRegion is a rectangle hidden on the image, in relative coordinates.
type OcclusionRegion struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
