// Package notetype turns authored notes into cards. Each note type is a
// variant registered under its type tag.
package notetype

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/repository"
)

var (
	ErrUnknownNoteType = errors.New("unknown note type")
	ErrInvalidContent  = errors.New("invalid note content")
	ErrDeckNotFound    = errors.New("deck not found")
	ErrTypeMismatch    = errors.New("note type mismatch")
)

// Rendered is the displayable form of one card.
type Rendered struct {
	Question string                   `json:"question"`
	Answer   string                   `json:"answer"`
	Items    []string                 `json:"items,omitempty"`
	Ordered  bool                     `json:"ordered,omitempty"`
	ImageURL string                   `json:"image_url,omitempty"`
	Regions  []models.OcclusionRegion `json:"regions,omitempty"`
	Hidden   string                   `json:"hidden_region,omitempty"`
}

// Adapter implements the note-type specific operations.
type Adapter interface {
	Type() models.NoteType
	CreateNote(ctx context.Context, store repository.Store, deck models.Deck, content models.NoteContent) (models.Note, []models.Card, error)
	UpdateNote(ctx context.Context, store repository.Store, note models.Note, content models.NoteContent) error
	Render(note models.Note, card models.Card) Rendered
	SortKey(note models.Note, card models.Card) string
}

// Env supplies ids and time to adapters.
type Env struct {
	Now   func() time.Time
	NewID func() string
}

func defaultEnv() Env {
	return Env{Now: time.Now, NewID: uuid.NewString}
}

type Registry struct {
	adapters map[models.NoteType]Adapter
}

// NewRegistry registers the built-in note types using env.
func NewRegistry(env Env) *Registry {
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.NewID == nil {
		env.NewID = uuid.NewString
	}
	r := &Registry{adapters: make(map[models.NoteType]Adapter)}
	r.Register(newAdapter(models.NoteTypeBasic, basic{}, env))
	r.Register(newAdapter(models.NoteTypeDoubleSided, doubleSided{}, env))
	r.Register(newAdapter(models.NoteTypeCloze, cloze{}, env))
	r.Register(newAdapter(models.NoteTypeList, list{}, env))
	r.Register(newAdapter(models.NoteTypeImageOcclusion, imageOcclusion{}, env))
	return r
}

// DefaultRegistry returns a registry with every built-in note type.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultEnv())
}

// Register adds or replaces the adapter for a.Type().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Type()] = a
}

func (r *Registry) Get(t models.NoteType) (Adapter, error) {
	a, ok := r.adapters[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNoteType, t)
	}
	return a, nil
}

// Types lists the registered type tags in alphabetical order.
func (r *Registry) Types() []models.NoteType {
	types := make([]models.NoteType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// variant is the per-type part of an adapter.
type variant interface {
	// prepare validates content and fills defaults.
	prepare(env Env, c models.NoteContent) (models.NoteContent, error)
	// cards lists the card contents the note should have.
	cards(c models.NoteContent) []models.CardContent
	// key identifies a card within its note across updates.
	key(cc models.CardContent) string
	preview(c models.NoteContent, cc models.CardContent) string
	render(c models.NoteContent, cc models.CardContent) Rendered
	sortKey(c models.NoteContent, cc models.CardContent) string
}

type adapter struct {
	typ models.NoteType
	v   variant
	env Env
}

func newAdapter(t models.NoteType, v variant, env Env) *adapter {
	return &adapter{typ: t, v: v, env: env}
}

func (a *adapter) Type() models.NoteType { return a.typ }

func (a *adapter) CreateNote(ctx context.Context, store repository.Store, deck models.Deck, content models.NoteContent) (models.Note, []models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("notetype").WithField("type", string(a.typ))

	content, err := a.v.prepare(a.env, content)
	if err != nil {
		return models.Note{}, nil, err
	}

	now := a.env.Now().UTC()
	note := models.Note{
		ID:        a.env.NewID(),
		DeckID:    deck.ID,
		Type:      a.typ,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var cards []models.Card
	for _, cc := range a.v.cards(content) {
		cards = append(cards, a.newCard(note, cc, now))
	}

	tables := []string{repository.TableNotes, repository.TableDecks, repository.TableCards}
	err = store.RunInTransaction(ctx, tables, func(tx repository.Store) error {
		d, err := tx.Decks().Get(ctx, deck.ID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: %s", ErrDeckNotFound, deck.ID)
		}
		if err := tx.Notes().Insert(ctx, note); err != nil {
			return err
		}
		for _, c := range cards {
			if err := tx.Cards().Insert(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create note: %v", err)
		return models.Note{}, nil, err
	}

	log.Info("note created: id=%s, deck_id=%s, cards=%d", note.ID, deck.ID, len(cards))
	return note, cards, nil
}

// UpdateNote stores new content, rewrites the content and preview of
// existing cards and adds cards the new content calls for. Scheduling state of existing
// cards is left as is.
func (a *adapter) UpdateNote(ctx context.Context, store repository.Store, note models.Note, content models.NoteContent) error {
	log := logger.FromContext(ctx).WithPrefix("notetype").WithField("type", string(a.typ))

	if note.Type != a.typ {
		return fmt.Errorf("%w: note %s is %q, not %q", ErrTypeMismatch, note.ID, note.Type, a.typ)
	}
	content, err := a.v.prepare(a.env, content)
	if err != nil {
		return err
	}
	now := a.env.Now().UTC()

	added := 0
	err = store.RunInTransaction(ctx, []string{repository.TableNotes, repository.TableCards}, func(tx repository.Store) error {
		existing, err := tx.Cards().ListByNote(ctx, note.ID)
		if err != nil {
			return err
		}
		byKey := make(map[string]models.Card, len(existing))
		for _, c := range existing {
			byKey[a.v.key(c.Content)] = c
		}

		if err := tx.Notes().UpdateContent(ctx, note.ID, content, now); err != nil {
			return err
		}

		note.Content = content
		for _, cc := range a.v.cards(content) {
			cc.Type = a.typ
			if c, ok := byKey[a.v.key(cc)]; ok {
				if err := tx.Cards().UpdateContent(ctx, c.ID, cc, a.v.preview(content, cc)); err != nil {
					return err
				}
				continue
			}
			if err := tx.Cards().Insert(ctx, a.newCard(note, cc, now)); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		log.Error("failed to update note %s: %v", note.ID, err)
		return err
	}

	log.Info("note updated: id=%s, new_cards=%d", note.ID, added)
	return nil
}

func (a *adapter) Render(note models.Note, card models.Card) Rendered {
	return a.v.render(note.Content, card.Content)
}

func (a *adapter) SortKey(note models.Note, card models.Card) string {
	return a.v.sortKey(note.Content, card.Content)
}

func (a *adapter) newCard(note models.Note, cc models.CardContent, now time.Time) models.Card {
	cc.Type = a.typ
	return models.Card{
		ID:        a.env.NewID(),
		NoteID:    note.ID,
		DeckID:    note.DeckID,
		Model:     models.NewCardModel(now),
		Content:   cc,
		Preview:   a.v.preview(note.Content, cc),
		CreatedAt: now,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidContent, fmt.Sprintf(format, args...))
}
