// Package gateway is the client core's port to the remote note store.
// The note store and autosave scheduler only ever see this interface;
// the HTTP client below is the production implementation.
package gateway

import (
	"context"

	"github.com/notaflow/notaflow/internal/notestore"
)

// NoteFields is the mutable subset sent on create/persist; ids and
// timestamps are always assigned server-side.
type NoteFields struct {
	Title   string
	Content string
	Pinned  bool
}

type Gateway interface {
	FetchNotes(ctx context.Context, userID string) ([]notestore.Note, error)
	GetNote(ctx context.Context, noteID string) (notestore.Note, error)
	CreateNote(ctx context.Context, fields NoteFields) (notestore.Note, error)
	// PersistNote returns the canonical server version, including the
	// authoritative Mtime.
	PersistNote(ctx context.Context, noteID string, fields NoteFields) (notestore.Note, error)
	DeleteNote(ctx context.Context, noteID string) error
}
