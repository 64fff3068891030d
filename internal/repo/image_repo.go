package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notaflow/notaflow/internal/model"
	"github.com/notaflow/notaflow/internal/pkg/dbutil"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
)

var imageFields = []string{"id", "user_id", "name", "path", "url", "ctime"}

type ImageRepo struct {
	db *sql.DB
}

func NewImageRepo(db *sql.DB) *ImageRepo {
	return &ImageRepo{db: db}
}

func (r *ImageRepo) Create(ctx context.Context, image *model.Image) error {
	data := map[string]interface{}{
		"id":      image.ID,
		"user_id": image.UserID,
		"name":    image.Name,
		"path":    image.Path,
		"url":     image.URL,
		"ctime":   image.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("images", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ImageRepo) GetByID(ctx context.Context, userID, imageID string) (*model.Image, error) {
	where := map[string]interface{}{
		"id":      imageID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("images", where, imageFields)
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
	var image model.Image
	if err := rows.Scan(&image.ID, &image.UserID, &image.Name, &image.Path, &image.URL, &image.Ctime); err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepo) ListByUser(ctx context.Context, userID string) ([]model.Image, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("images", where, imageFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	images := make([]model.Image, 0)
	for rows.Next() {
		var image model.Image
		if err := rows.Scan(&image.ID, &image.UserID, &image.Name, &image.Path, &image.URL, &image.Ctime); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// ListPage walks all rows regardless of owner, for maintenance jobs.
func (r *ImageRepo) ListPage(ctx context.Context, limit, offset uint) ([]model.Image, error) {
	where := map[string]interface{}{
		"_orderby": "ctime asc",
		"_limit":   []uint{offset, limit},
	}
	sqlStr, args, err := builder.BuildSelect("images", where, imageFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	images := make([]model.Image, 0)
	for rows.Next() {
		var image model.Image
		if err := rows.Scan(&image.ID, &image.UserID, &image.Name, &image.Path, &image.URL, &image.Ctime); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func (r *ImageRepo) Delete(ctx context.Context, userID, imageID string) error {
	where := map[string]interface{}{
		"id":      imageID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("images", where)
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
