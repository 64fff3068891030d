package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notaflow/notaflow/internal/model"
	"github.com/notaflow/notaflow/internal/pkg/dbutil"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
)

var profileFields = []string{"user_id", "display_name", "theme", "font", "avatar_url", "mtime"}

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	data := map[string]interface{}{
		"user_id":      profile.UserID,
		"display_name": profile.DisplayName,
		"theme":        profile.Theme,
		"font":         profile.Font,
		"avatar_url":   profile.AvatarURL,
		"mtime":        profile.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("profiles", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildSelect("profiles", where, profileFields)
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
	var profile model.Profile
	if err := rows.Scan(&profile.UserID, &profile.DisplayName, &profile.Theme, &profile.Font, &profile.AvatarURL, &profile.Mtime); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update writes only the provided columns; mtime is always stamped.
func (r *ProfileRepo) Update(ctx context.Context, userID string, update map[string]interface{}) error {
	if len(update) == 0 {
		return nil
	}
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildUpdate("profiles", where, update)
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
