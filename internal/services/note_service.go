package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/skola/internal/errors"
	"github.com/vytor/skola/internal/logger"
	"github.com/vytor/skola/internal/models"
	"github.com/vytor/skola/internal/notetype"
	"github.com/vytor/skola/internal/repository"
)

// NoteWithCards is a note together with the cards generated from it.
type NoteWithCards struct {
	Note  models.Note   `json:"note"`
	Cards []models.Card `json:"cards"`
}

// NoteService handles authoring of notes and rendering of their cards
type NoteService interface {
	CreateNote(ctx context.Context, deckID string, noteType models.NoteType, content models.NoteContent) (*NoteWithCards, error)
	UpdateNote(ctx context.Context, noteID string, content models.NoteContent) (*NoteWithCards, error)
	GetNote(ctx context.Context, noteID string) (*NoteWithCards, error)
	ListNotes(ctx context.Context, deckID string) ([]models.Note, error)
	RenderCard(ctx context.Context, cardID string) (*notetype.Rendered, error)
	NoteTypes() []models.NoteType
}

type noteService struct {
	store    repository.Store
	registry *notetype.Registry
}

// NewNoteService creates a new NoteService
func NewNoteService(store repository.Store, registry *notetype.Registry) NoteService {
	return &noteService{store: store, registry: registry}
}

func (s *noteService) CreateNote(ctx context.Context, deckID string, noteType models.NoteType, content models.NoteContent) (*NoteWithCards, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating note: deck_id=%s, type=%s", deckID, noteType)

	adapter, err := s.registry.Get(noteType)
	if err != nil {
		return nil, errors.NewValidationError("type", err.Error())
	}

	deck, err := s.store.Decks().Get(ctx, deckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	note, cards, err := adapter.CreateNote(ctx, s.store, *deck, content)
	if err != nil {
		return nil, noteTypeError(err, deckID)
	}
	return &NoteWithCards{Note: note, Cards: cards}, nil
}

func (s *noteService) UpdateNote(ctx context.Context, noteID string, content models.NoteContent) (*NoteWithCards, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating note: note_id=%s", noteID)

	note, err := s.store.Notes().Get(ctx, noteID)
	if err != nil {
		log.Error("failed to get note: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if note == nil {
		return nil, errors.NewNotFoundError("note", noteID)
	}

	adapter, err := s.registry.Get(note.Type)
	if err != nil {
		log.Error("stored note %s has unregistered type %q", note.ID, note.Type)
		return nil, errors.NewInternalError(err)
	}
	if err := adapter.UpdateNote(ctx, s.store, *note, content); err != nil {
		return nil, noteTypeError(err, note.DeckID)
	}
	return s.GetNote(ctx, noteID)
}

func (s *noteService) GetNote(ctx context.Context, noteID string) (*NoteWithCards, error) {
	log := logger.FromContext(ctx)

	note, err := s.store.Notes().Get(ctx, noteID)
	if err != nil {
		log.Error("failed to get note: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if note == nil {
		return nil, errors.NewNotFoundError("note", noteID)
	}
	cards, err := s.store.Cards().ListByNote(ctx, noteID)
	if err != nil {
		log.Error("failed to list cards of note: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return &NoteWithCards{Note: *note, Cards: cards}, nil
}

func (s *noteService) ListNotes(ctx context.Context, deckID string) ([]models.Note, error) {
	log := logger.FromContext(ctx)

	deck, err := s.store.Decks().Get(ctx, deckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	notes, err := s.store.Notes().ListByDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to list notes: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return notes, nil
}

func (s *noteService) RenderCard(ctx context.Context, cardID string) (*notetype.Rendered, error) {
	log := logger.FromContext(ctx)

	card, err := s.store.Cards().Get(ctx, cardID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", cardID)
	}
	note, err := s.store.Notes().Get(ctx, card.NoteID)
	if err != nil {
		log.Error("failed to get note: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if note == nil {
		return nil, errors.NewNotFoundError("note", card.NoteID)
	}
	adapter, err := s.registry.Get(note.Type)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	rendered := adapter.Render(*note, *card)
	return &rendered, nil
}

func (s *noteService) NoteTypes() []models.NoteType {
	return s.registry.Types()
}

func noteTypeError(err error, deckID string) error {
	switch {
	case stderrors.Is(err, notetype.ErrInvalidContent):
		return errors.NewValidationError("content", err.Error())
	case stderrors.Is(err, notetype.ErrDeckNotFound):
		return errors.NewNotFoundError("deck", deckID)
	case stderrors.Is(err, notetype.ErrTypeMismatch), stderrors.Is(err, notetype.ErrUnknownNoteType):
		return errors.NewBadRequestError(err.Error())
	default:
		return errors.NewInternalError(err)
	}
}
