package service

import (
	"context"

	"github.com/notaflow/notaflow/internal/model"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
	"github.com/notaflow/notaflow/internal/pkg/timeutil"
	"github.com/notaflow/notaflow/internal/repo"
)

const DefaultNoteTitle = "Untitled Note"

type NoteService struct {
	notes *repo.NoteRepo
}

func NewNoteService(notes *repo.NoteRepo) *NoteService {
	return &NoteService{notes: notes}
}

type NoteCreateInput struct {
	Title   string
	Content string
	Pinned  bool
}

type NoteUpdateInput struct {
	Title   string
	Content string
	Pinned  bool
}

// Create assigns the id and both timestamps; clients never fabricate them.
func (s *NoteService) Create(ctx context.Context, userID string, input NoteCreateInput) (*model.Note, error) {
	title := input.Title
	if title == "" {
		title = DefaultNoteTitle
	}
	now := timeutil.NowMilli()
	note := &model.Note{
		ID:      newID(),
		UserID:  userID,
		Title:   title,
		Content: input.Content,
		Pinned:  boolToInt(input.Pinned),
		State:   repo.NoteStateNormal,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, userID string, limit, offset uint) ([]model.Note, error) {
	return s.notes.List(ctx, userID, limit, offset)
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*model.Note, error) {
	return s.notes.GetByID(ctx, userID, noteID)
}

// Update stamps the authoritative mtime and returns the canonical row so
// the client can reconcile its optimistic copy.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, input NoteUpdateInput) (*model.Note, error) {
	note := &model.Note{
		ID:      noteID,
		UserID:  userID,
		Title:   input.Title,
		Content: input.Content,
		Pinned:  boolToInt(input.Pinned),
		Mtime:   timeutil.NowMilli(),
	}
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}
	return s.notes.GetByID(ctx, userID, noteID)
}

func (s *NoteService) UpdatePinned(ctx context.Context, userID, noteID string, pinned bool) (*model.Note, error) {
	if err := s.notes.UpdatePinned(ctx, userID, noteID, boolToInt(pinned), timeutil.NowMilli()); err != nil {
		return nil, err
	}
	return s.notes.GetByID(ctx, userID, noteID)
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	err := s.notes.SoftDelete(ctx, userID, noteID, timeutil.NowMilli())
	if appErr.IsNotFound(err) {
		return appErr.ErrNotFound
	}
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
