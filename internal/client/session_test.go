package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notaflow/notaflow/internal/gateway"
	"github.com/notaflow/notaflow/internal/notestore"
)

// fakeGateway acts as an in-memory server with authoritative mtimes.
type fakeGateway struct {
	mu       sync.Mutex
	notes    map[string]notestore.Note
	order    []string
	clock    int64
	persists []gateway.NoteFields
	deletes  []string
	failWith error
	// block, when set, stalls PersistNote until released
	block chan struct{}
	// started, when set, receives one value as each persist enters
	started chan struct{}
}

func newFakeGateway(notes ...notestore.Note) *fakeGateway {
	g := &fakeGateway{notes: make(map[string]notestore.Note), clock: 10000}
	for _, n := range notes {
		g.notes[n.ID] = n
		g.order = append(g.order, n.ID)
	}
	return g
}

func (g *fakeGateway) FetchNotes(ctx context.Context, userID string) ([]notestore.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]notestore.Note, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.notes[id])
	}
	return out, nil
}

func (g *fakeGateway) GetNote(ctx context.Context, noteID string) (notestore.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.notes[noteID]
	if !ok {
		return notestore.Note{}, errors.New("not found")
	}
	return n, nil
}

func (g *fakeGateway) CreateNote(ctx context.Context, fields gateway.NoteFields) (notestore.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock++
	n := notestore.Note{
		ID:      "srv-" + time.Now().Format("150405.000000000"),
		Title:   fields.Title,
		Content: fields.Content,
		Pinned:  fields.Pinned,
		Ctime:   g.clock,
		Mtime:   g.clock,
	}
	g.notes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n, nil
}

func (g *fakeGateway) PersistNote(ctx context.Context, noteID string, fields gateway.NoteFields) (notestore.Note, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return notestore.Note{}, g.failWith
	}
	g.persists = append(g.persists, fields)
	n, ok := g.notes[noteID]
	if !ok {
		return notestore.Note{}, errors.New("not found")
	}
	g.clock++
	n.Title = fields.Title
	n.Content = fields.Content
	n.Pinned = fields.Pinned
	n.Mtime = g.clock
	g.notes[noteID] = n
	return n, nil
}

func (g *fakeGateway) DeleteNote(ctx context.Context, noteID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, noteID)
	delete(g.notes, noteID)
	return nil
}

func (g *fakeGateway) persistCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.persists)
}

func (g *fakeGateway) lastPersist() gateway.NoteFields {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.persists[len(g.persists)-1]
}

func strptr(s string) *string { return &s }

func waitSaved(t *testing.T, ch <-chan notestore.Note) notestore.Note {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for save")
		return notestore.Note{}
	}
}

func TestEditBurstPersistsOnce(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "n1", Title: "Untitled Note", Mtime: 100})
	saved := make(chan notestore.Note, 4)
	session := NewSession(gw, "u-1",
		WithDebounce(20*time.Millisecond),
		WithOnSaved(func(n notestore.Note) { saved <- n }),
	)
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("n1", notestore.Patch{Title: strptr("G")})
	session.Edit("n1", notestore.Patch{Title: strptr("Groc")})
	session.Edit("n1", notestore.Patch{Title: strptr("Groceries")})

	got := waitSaved(t, saved)
	require.Equal(t, "Groceries", got.Title)
	require.Equal(t, 1, gw.persistCount())
	require.Equal(t, "Groceries", gw.lastPersist().Title)

	note, ok := session.Note("n1")
	require.True(t, ok)
	require.False(t, note.Dirty)
	require.NoError(t, session.Close(ctx))
}

func TestPinDuringOtherNotesDebounceIsIndependent(t *testing.T) {
	gw := newFakeGateway(
		notestore.Note{ID: "a", Title: "A", Mtime: 200},
		notestore.Note{ID: "b", Title: "B", Mtime: 100},
	)
	saved := make(chan notestore.Note, 4)
	session := NewSession(gw, "u-1",
		WithDebounce(30*time.Millisecond),
		WithOnSaved(func(n notestore.Note) { saved <- n }),
	)
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("a", notestore.Patch{Content: strptr("draft")})
	session.TogglePin("b")

	first := waitSaved(t, saved)
	second := waitSaved(t, saved)
	ids := []string{first.ID, second.ID}
	require.ElementsMatch(t, []string{"a", "b"}, ids)
	require.Equal(t, 2, gw.persistCount())

	b, _ := session.Note("b")
	require.True(t, b.Pinned)
	require.NoError(t, session.Close(ctx))
}

func TestFailedPersistKeepsNoteDirty(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "n1", Title: "A", Mtime: 100})
	gw.failWith = errors.New("server down")
	errs := make(chan error, 4)
	session := NewSession(gw, "u-1",
		WithDebounce(20*time.Millisecond),
		WithOnError(func(_ string, err error) { errs <- err }),
	)
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("n1", notestore.Patch{Title: strptr("B")})
	select {
	case err := <-errs:
		require.ErrorContains(t, err, "server down")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	note, _ := session.Note("n1")
	require.True(t, note.Dirty)
	require.Equal(t, "B", note.Title)

	// recovery: the edit survives and the next flush persists it
	gw.mu.Lock()
	gw.failWith = nil
	gw.mu.Unlock()
	require.NoError(t, session.Close(ctx))
	note, _ = session.Note("n1")
	require.False(t, note.Dirty)
}

func TestEditDuringInflightPersistSupersedes(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "n1", Title: "v0", Mtime: 100})
	gw.block = make(chan struct{})
	saved := make(chan notestore.Note, 4)
	session := NewSession(gw, "u-1",
		WithDebounce(10*time.Millisecond),
		WithOnSaved(func(n notestore.Note) { saved <- n }),
	)
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("n1", notestore.Patch{Title: strptr("v1")})
	time.Sleep(30 * time.Millisecond) // v1 persist is now stalled in flight

	session.Edit("n1", notestore.Patch{Title: strptr("v2")})
	time.Sleep(30 * time.Millisecond) // v2 fire lands mid-flight, marks rerun
	close(gw.block)

	// the stale v1 confirmation must not clear v2's dirty flag; the rerun
	// persist carries v2
	got := waitSaved(t, saved)
	require.Equal(t, "v2", got.Title)

	note, _ := session.Note("n1")
	require.False(t, note.Dirty)
	require.Equal(t, "v2", note.Title)
	require.NoError(t, session.Close(ctx))
}

func TestSwitchToFlushesOutgoingNote(t *testing.T) {
	gw := newFakeGateway(
		notestore.Note{ID: "a", Title: "A", Mtime: 200},
		notestore.Note{ID: "b", Title: "B", Mtime: 100},
	)
	session := NewSession(gw, "u-1", WithDebounce(time.Hour))
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.SwitchTo("a")
	session.Edit("a", notestore.Patch{Content: strptr("unsaved")})
	session.SwitchTo("b")

	require.Equal(t, 1, gw.persistCount())
	require.Equal(t, "unsaved", gw.lastPersist().Content)
	active, ok := session.Active()
	require.True(t, ok)
	require.Equal(t, "b", active.ID)
	require.NoError(t, session.Close(ctx))
}

func TestDeleteCancelsPendingSave(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "a", Title: "A", Mtime: 100})
	session := NewSession(gw, "u-1", WithDebounce(time.Hour))
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("a", notestore.Patch{Title: strptr("doomed")})
	require.NoError(t, session.Delete(ctx, "a"))

	require.Equal(t, 0, gw.persistCount())
	require.Equal(t, []string{"a"}, gw.deletes)
	require.Equal(t, 0, len(session.Notes()))
	require.NoError(t, session.Close(ctx))
}

func TestCreateInsertsServerNote(t *testing.T) {
	gw := newFakeGateway()
	session := NewSession(gw, "u-1", WithDebounce(time.Hour))
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	note, err := session.Create(ctx, "fresh", "body")
	require.NoError(t, err)
	require.NotEmpty(t, note.ID)
	require.False(t, note.Dirty)

	active, ok := session.Active()
	require.True(t, ok)
	require.Equal(t, note.ID, active.ID)
	require.NoError(t, session.Close(ctx))
}

func TestCloseWaitsForInflightPersist(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "n1", Title: "v0", Mtime: 100})
	gw.block = make(chan struct{})
	gw.started = make(chan struct{}, 4)
	session := NewSession(gw, "u-1", WithDebounce(10*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("n1", notestore.Patch{Title: strptr("v1")})
	select {
	case <-gw.started:
	case <-time.After(2 * time.Second):
		t.Fatal("persist never started")
	}

	closed := make(chan error, 1)
	go func() { closed <- session.Close(ctx) }()

	// the stalled persist holds the note's flight slot; Close must wait
	// on it rather than fire a second request for the same note
	select {
	case <-closed:
		t.Fatal("Close returned while a persist was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gw.block)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not finish after the persist completed")
	}

	require.Equal(t, 1, gw.persistCount())
	note, _ := session.Note("n1")
	require.False(t, note.Dirty)
	require.Equal(t, "v1", note.Title)
}

func TestCloseFlushesPendingEdits(t *testing.T) {
	gw := newFakeGateway(notestore.Note{ID: "a", Title: "A", Mtime: 100})
	session := NewSession(gw, "u-1", WithDebounce(time.Hour))
	ctx := context.Background()
	require.NoError(t, session.Open(ctx))

	session.Edit("a", notestore.Patch{Title: strptr("final")})
	require.NoError(t, session.Close(ctx))

	require.Equal(t, 1, gw.persistCount())
	require.Equal(t, "final", gw.lastPersist().Title)
}
