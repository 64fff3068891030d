// Package client wires the note store, autosave scheduler and gateway
// into one editing session: optimistic local edits, debounced persists,
// canonical reconciliation on confirmation.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/autosave"
	"github.com/notaflow/notaflow/internal/gateway"
	"github.com/notaflow/notaflow/internal/notestore"
)

const persistTimeout = 15 * time.Second

type Session struct {
	store  *notestore.Store
	sched  *autosave.Scheduler
	gw     gateway.Gateway
	userID string

	mu       sync.Mutex
	settled  *sync.Cond
	inflight map[string]bool
	rerun    map[string]bool

	onSaved func(notestore.Note)
	onError func(noteID string, err error)
}

type Option func(*Session)

// WithDebounce overrides the autosave quiet period (tests use a few ms).
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.sched = autosave.NewScheduler(d, s.persist)
	}
}

// WithOnSaved installs the "saved" indicator hook.
func WithOnSaved(fn func(notestore.Note)) Option {
	return func(s *Session) { s.onSaved = fn }
}

// WithOnError installs the failed-save notification hook.
func WithOnError(fn func(noteID string, err error)) Option {
	return func(s *Session) { s.onError = fn }
}

func NewSession(gw gateway.Gateway, userID string, opts ...Option) *Session {
	s := &Session{
		store:    notestore.NewStore(),
		gw:       gw,
		userID:   userID,
		inflight: make(map[string]bool),
		rerun:    make(map[string]bool),
	}
	s.settled = sync.NewCond(&s.mu)
	s.sched = autosave.NewScheduler(autosave.DefaultInterval, s.persist)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open fetches the user's notes and loads them wholesale; the first note
// becomes active.
func (s *Session) Open(ctx context.Context) error {
	notes, err := s.gw.FetchNotes(ctx, s.userID)
	if err != nil {
		return err
	}
	s.store.Load(notes)
	return nil
}

func (s *Session) Notes() []notestore.Note {
	return s.store.List()
}

func (s *Session) Active() (notestore.Note, bool) {
	return s.store.Active()
}

func (s *Session) Note(noteID string) (notestore.Note, bool) {
	return s.store.Get(noteID)
}

// Create persists remotely first, then inserts the server's note; the
// store never sees a fabricated id.
func (s *Session) Create(ctx context.Context, title, content string) (notestore.Note, error) {
	note, err := s.gw.CreateNote(ctx, gateway.NoteFields{Title: title, Content: content})
	if err != nil {
		return notestore.Note{}, err
	}
	s.store.Insert(note)
	return note, nil
}

// Edit applies an optimistic local edit and (re-)arms the note's
// debounce timer. Unknown ids are no-ops.
func (s *Session) Edit(noteID string, patch notestore.Patch) {
	if !s.store.ApplyLocalEdit(noteID, patch) {
		return
	}
	s.sched.Schedule(noteID)
}

// TogglePin goes through the same dirty/persist cycle as a text edit,
// on the note's own timer.
func (s *Session) TogglePin(noteID string) {
	if _, ok := s.store.TogglePin(noteID); !ok {
		return
	}
	s.sched.Schedule(noteID)
}

// SwitchTo flushes the outgoing note's pending save before moving the
// active pointer, so switching away never silently drops an edit.
func (s *Session) SwitchTo(noteID string) {
	if current := s.store.ActiveID(); current != "" && current != noteID {
		s.sched.Flush(current)
	}
	s.store.SetActive(noteID)
}

// Delete cancels any pending save, then removes the note locally only
// after the remote deletion succeeded.
func (s *Session) Delete(ctx context.Context, noteID string) error {
	s.sched.Cancel(noteID)
	if err := s.gw.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	s.store.Remove(noteID)
	return nil
}

// Flush forces a pending save for the note right now.
func (s *Session) Flush(noteID string) {
	s.sched.Flush(noteID)
}

// Close flushes every pending and dirty note, then shuts the scheduler
// down. Returns the first persist error encountered.
func (s *Session) Close(ctx context.Context) error {
	for _, id := range s.sched.PendingIDs() {
		s.sched.Flush(id)
	}
	s.sched.Stop()
	var firstErr error
	for _, id := range s.store.DirtyIDs() {
		// a late timer fire may still hold this note's flight slot
		s.acquireFlight(id)
		err := s.persistOnce(ctx, id)
		s.releaseFlight(id)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// acquireFlight blocks until the note's persist slot is free and claims
// it. Only one request per note is ever on the wire.
func (s *Session) acquireFlight(noteID string) {
	s.mu.Lock()
	for s.inflight[noteID] {
		s.settled.Wait()
	}
	s.inflight[noteID] = true
	s.mu.Unlock()
}

func (s *Session) releaseFlight(noteID string) bool {
	s.mu.Lock()
	delete(s.inflight, noteID)
	again := s.rerun[noteID]
	delete(s.rerun, noteID)
	s.settled.Broadcast()
	s.mu.Unlock()
	return again
}

// persist is the scheduler's fire callback. At most one persist is in
// flight per note: a fire that lands mid-flight marks the note for a
// rerun instead of racing the first request on the server's mtime.
func (s *Session) persist(noteID string) {
	s.mu.Lock()
	if s.inflight[noteID] {
		s.rerun[noteID] = true
		s.mu.Unlock()
		return
	}
	s.inflight[noteID] = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	err := s.persistOnce(ctx, noteID)
	cancel()
	if err != nil {
		logutil.GetLogger(ctx).Warn("autosave failed",
			zap.String("note_id", noteID),
			zap.Error(err),
		)
		if s.onError != nil {
			s.onError(noteID, err)
		}
	}

	if s.releaseFlight(noteID) {
		s.sched.Schedule(noteID)
	}
}

// persistOnce sends the note's current snapshot and reconciles the
// canonical response. A confirmation for a superseded snapshot is
// dropped by the store; the note stays dirty and the newer edit's own
// timer carries it.
func (s *Session) persistOnce(ctx context.Context, noteID string) error {
	snapshot, seq, ok := s.store.Snapshot(noteID)
	if !ok || !snapshot.Dirty {
		return nil
	}
	server, err := s.gw.PersistNote(ctx, noteID, gateway.NoteFields{
		Title:   snapshot.Title,
		Content: snapshot.Content,
		Pinned:  snapshot.Pinned,
	})
	if err != nil {
		return err
	}
	if s.store.ConfirmPersisted(noteID, server, seq) && s.onSaved != nil {
		s.onSaved(server)
	}
	return nil
}
