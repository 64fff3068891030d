package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/model"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
	"github.com/notaflow/notaflow/internal/pkg/timeutil"
	"github.com/notaflow/notaflow/internal/repo"
)

type ImageService struct {
	images    *repo.ImageRepo
	store     filestore.Store
	publicURL string
}

func NewImageService(images *repo.ImageRepo, store filestore.Store, publicURL string) *ImageService {
	return &ImageService{images: images, store: store, publicURL: publicURL}
}

func (s *ImageService) Upload(ctx context.Context, userID, filename string, r filestore.ReadSeekCloser, size int64) (*model.Image, error) {
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("images/%s%s", newID(), ext)
	if err := s.store.Save(ctx, key, r, size); err != nil {
		logutil.GetLogger(ctx).Error("save image failed", zap.String("key", key), zap.Error(err))
		return nil, appErr.ErrUploadFailed
	}
	image := &model.Image{
		ID:     newID(),
		UserID: userID,
		Name:   filename,
		Path:   key,
		URL:    s.store.URL(key, s.publicURL),
		Ctime:  timeutil.NowMilli(),
	}
	if err := s.images.Create(ctx, image); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return image, nil
}

func (s *ImageService) List(ctx context.Context, userID string) ([]model.Image, error) {
	return s.images.ListByUser(ctx, userID)
}

// Delete removes the stored object first, then the row; the row survives
// if object deletion fails so the image stays visible and retryable.
func (s *ImageService) Delete(ctx context.Context, userID, imageID string) error {
	image, err := s.images.GetByID(ctx, userID, imageID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, image.Path); err != nil {
		logutil.GetLogger(ctx).Error("delete image object failed", zap.String("path", image.Path), zap.Error(err))
		return appErr.ErrInternal
	}
	return s.images.Delete(ctx, userID, imageID)
}
