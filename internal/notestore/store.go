// Package notestore holds the session-local note list: the single source
// of truth for what the UI shows between syncs with the remote store.
package notestore

import (
	"sort"
	"sync"

	"github.com/notaflow/notaflow/internal/pkg/timeutil"
)

type Note struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
	Ctime   int64  `json:"ctime"`
	Mtime   int64  `json:"mtime"`
	// Dirty marks unconfirmed local edits; it never leaves the process.
	Dirty bool `json:"-"`
}

// Patch carries a partial title/content edit; nil fields are untouched.
type Patch struct {
	Title   *string
	Content *string
}

type entry struct {
	note Note
	// seq counts local edits; a persist confirmation is applied only if
	// it was sent at the current seq, so stale responses cannot clobber
	// newer edits.
	seq uint64
}

type Store struct {
	mu      sync.Mutex
	entries []*entry
	active  string
	now     func() int64
}

func NewStore() *Store {
	return &Store{now: timeutil.NowMilli}
}

// Load replaces the list wholesale. The active pointer survives if its
// note is still present, otherwise the first note becomes active.
func (s *Store) Load(notes []Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]*entry, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for _, note := range notes {
		if _, ok := seen[note.ID]; ok {
			continue
		}
		seen[note.ID] = struct{}{}
		n := note
		entries = append(entries, &entry{note: n})
	}
	s.entries = entries
	s.sortLocked()
	if _, ok := seen[s.active]; !ok {
		s.active = ""
	}
	if s.active == "" && len(s.entries) > 0 {
		s.active = s.entries[0].note.ID
	}
}

// SetActive is a silent no-op for unknown ids.
func (s *Store) SetActive(noteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(noteID) != nil {
		s.active = noteID
	}
}

func (s *Store) Active() (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(s.active)
	if e == nil {
		return Note{}, false
	}
	return e.note, true
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Insert prepends a server-created note and makes it active. The id and
// timestamps must come from the remote store; this never fabricates them.
func (s *Store) Insert(note Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(note.ID) != nil {
		return
	}
	s.entries = append([]*entry{{note: note}}, s.entries...)
	s.active = note.ID
}

// ApplyLocalEdit merges the patch, marks the note dirty and bumps Mtime
// for display only; the authoritative Mtime is whatever the server
// confirms later. The list is deliberately not re-sorted here so the
// note being edited does not jump position mid-keystroke.
func (s *Store) ApplyLocalEdit(noteID string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(noteID)
	if e == nil {
		return false
	}
	if patch.Title != nil {
		e.note.Title = *patch.Title
	}
	if patch.Content != nil {
		e.note.Content = *patch.Content
	}
	e.note.Dirty = true
	e.note.Mtime = s.now()
	e.seq++
	return true
}

// TogglePin flips the pin flag through the same dirty/confirm cycle as a
// text edit. Returns the updated snapshot.
func (s *Store) TogglePin(noteID string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(noteID)
	if e == nil {
		return Note{}, false
	}
	e.note.Pinned = !e.note.Pinned
	e.note.Dirty = true
	e.note.Mtime = s.now()
	e.seq++
	return e.note, true
}

// ConfirmPersisted replaces the local note with the server's canonical
// version and clears the dirty flag, but only when atSeq still matches
// the note's current edit sequence. A stale confirmation (a newer local
// edit happened while the request was in flight) is dropped and the note
// stays dirty. Returns whether the confirmation was applied.
func (s *Store) ConfirmPersisted(noteID string, server Note, atSeq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(noteID)
	if e == nil {
		return false
	}
	if e.seq != atSeq {
		return false
	}
	server.Dirty = false
	e.note = server
	s.sortLocked()
	return true
}

// Remove drops a note whose remote deletion has already been confirmed.
// If it was active, the new first note (if any) takes over.
func (s *Store) Remove(noteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, e := range s.entries {
		if e.note.ID == noteID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	if s.active == noteID {
		if len(s.entries) > 0 {
			s.active = s.entries[0].note.ID
		} else {
			s.active = ""
		}
	}
	return true
}

// Snapshot returns an atomic copy of the note plus its edit sequence,
// for the persist pipeline.
func (s *Store) Snapshot(noteID string) (Note, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(noteID)
	if e == nil {
		return Note{}, 0, false
	}
	return e.note, e.seq, true
}

func (s *Store) Get(noteID string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findLocked(noteID)
	if e == nil {
		return Note{}, false
	}
	return e.note, true
}

// List returns the notes in display order.
func (s *Store) List() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := make([]Note, 0, len(s.entries))
	for _, e := range s.entries {
		notes = append(notes, e.note)
	}
	return notes
}

func (s *Store) DirtyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, e := range s.entries {
		if e.note.Dirty {
			ids = append(ids, e.note.ID)
		}
	}
	return ids
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) findLocked(noteID string) *entry {
	if noteID == "" {
		return nil
	}
	for _, e := range s.entries {
		if e.note.ID == noteID {
			return e
		}
	}
	return nil
}

// Ordering invariant: pinned notes first, then most recently modified
// first. Always a full re-sort; incremental patching drifts.
func (s *Store) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i].note, s.entries[j].note
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		return a.Mtime > b.Mtime
	})
}
