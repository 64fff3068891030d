package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notaflow/notaflow/internal/model"
	"github.com/notaflow/notaflow/internal/pkg/dbutil"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
)

const (
	NoteStateNormal  = 1
	NoteStateDeleted = 2
)

var noteFields = []string{"id", "user_id", "title", "content", "pinned", "state", "ctime", "mtime"}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	data := map[string]interface{}{
		"id":      note.ID,
		"user_id": note.UserID,
		"title":   note.Title,
		"content": note.Content,
		"pinned":  note.Pinned,
		"state":   note.State,
		"ctime":   note.Ctime,
		"mtime":   note.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteRepo) Update(ctx context.Context, note *model.Note) error {
	where := map[string]interface{}{
		"id":      note.ID,
		"user_id": note.UserID,
		"state":   NoteStateNormal,
	}
	update := map[string]interface{}{
		"title":   note.Title,
		"content": note.Content,
		"pinned":  note.Pinned,
		"mtime":   note.Mtime,
	}
	return r.exec(ctx, "notes", where, update)
}

func (r *NoteRepo) UpdatePinned(ctx context.Context, userID, noteID string, pinned int, mtime int64) error {
	where := map[string]interface{}{
		"id":      noteID,
		"user_id": userID,
		"state":   NoteStateNormal,
	}
	update := map[string]interface{}{
		"pinned": pinned,
		"mtime":  mtime,
	}
	return r.exec(ctx, "notes", where, update)
}

func (r *NoteRepo) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	where := map[string]interface{}{
		"id":      noteID,
		"user_id": userID,
		"state":   NoteStateNormal,
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var note model.Note
	if err := scanNote(rows, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// List returns the user's live notes pinned-first, most recently
// modified first; clients re-sort locally regardless.
func (r *NoteRepo) List(ctx context.Context, userID string, limit, offset uint) ([]model.Note, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"state":    NoteStateNormal,
		"_orderby": "pinned desc, mtime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := make([]model.Note, 0)
	for rows.Next() {
		var note model.Note
		if err := scanNote(rows, &note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) SoftDelete(ctx context.Context, userID, noteID string, mtime int64) error {
	where := map[string]interface{}{
		"id":      noteID,
		"user_id": userID,
		"state":   NoteStateNormal,
	}
	update := map[string]interface{}{
		"state": NoteStateDeleted,
		"mtime": mtime,
	}
	return r.exec(ctx, "notes", where, update)
}

// PurgeDeletedBefore hard-deletes soft-deleted rows older than cutoff.
func (r *NoteRepo) PurgeDeletedBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{
		"state":   NoteStateDeleted,
		"mtime <": cutoff,
	}
	sqlStr, args, err := builder.BuildDelete("notes", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NoteRepo) exec(ctx context.Context, table string, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate(table, where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanNote(rows *sql.Rows, note *model.Note) error {
	return rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.Pinned, &note.State, &note.Ctime, &note.Mtime)
}
