package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/notaflow/notaflow/internal/model"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
	"github.com/notaflow/notaflow/internal/pkg/timeutil"
	"github.com/notaflow/notaflow/internal/repo"
	"github.com/notaflow/notaflow/test/testutil"
)

func TestNoteRepoCRUDAndIsolation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	notes := repo.NewNoteRepo(db)
	now := timeutil.NowMilli()
	userID := uuid.NewString()
	note := &model.Note{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   "title",
		Content: "content",
		State:   repo.NoteStateNormal,
		Ctime:   now,
		Mtime:   now,
	}
	require.NoError(t, notes.Create(context.Background(), note))

	fetched, err := notes.GetByID(context.Background(), userID, note.ID)
	require.NoError(t, err)
	require.Equal(t, "title", fetched.Title)

	_, err = notes.GetByID(context.Background(), uuid.NewString(), note.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	note.Title = "updated"
	note.Mtime = timeutil.NowMilli()
	require.NoError(t, notes.Update(context.Background(), note))

	require.NoError(t, notes.SoftDelete(context.Background(), userID, note.ID, timeutil.NowMilli()))

	_, err = notes.GetByID(context.Background(), userID, note.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestNoteRepoListOrdering(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	notes := repo.NewNoteRepo(db)
	userID := uuid.NewString()
	base := timeutil.NowMilli()
	insert := func(title string, pinned int, mtime int64) string {
		id := uuid.NewString()
		require.NoError(t, notes.Create(context.Background(), &model.Note{
			ID: id, UserID: userID, Title: title,
			Pinned: pinned, State: repo.NoteStateNormal,
			Ctime: mtime, Mtime: mtime,
		}))
		return id
	}
	oldPinned := insert("old pinned", 1, base-200)
	newest := insert("newest", 0, base)
	older := insert("older", 0, base-100)

	got, err := notes.List(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, oldPinned, got[0].ID)
	require.Equal(t, newest, got[1].ID)
	require.Equal(t, older, got[2].ID)
}

func TestNoteRepoPurgeDeletedBefore(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	notes := repo.NewNoteRepo(db)
	userID := uuid.NewString()
	now := timeutil.NowMilli()

	oldDeleted := uuid.NewString()
	require.NoError(t, notes.Create(context.Background(), &model.Note{
		ID: oldDeleted, UserID: userID, State: repo.NoteStateDeleted,
		Ctime: now - 1000, Mtime: now - 1000,
	}))
	freshDeleted := uuid.NewString()
	require.NoError(t, notes.Create(context.Background(), &model.Note{
		ID: freshDeleted, UserID: userID, State: repo.NoteStateDeleted,
		Ctime: now, Mtime: now,
	}))
	live := uuid.NewString()
	require.NoError(t, notes.Create(context.Background(), &model.Note{
		ID: live, UserID: userID, State: repo.NoteStateNormal,
		Ctime: now - 1000, Mtime: now - 1000,
	}))

	purged, err := notes.PurgeDeletedBefore(context.Background(), now-500)
	require.NoError(t, err)
	require.GreaterOrEqual(t, purged, int64(1))

	// the live note survives even though it is older than the cutoff
	_, err = notes.GetByID(context.Background(), userID, live)
	require.NoError(t, err)
}
