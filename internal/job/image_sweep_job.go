package job

import (
	"context"
	"errors"
	"io/fs"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/repo"
)

const imageSweepPageSize = 200

// ImageSweepJob drops image rows whose backing object no longer exists,
// e.g. after a bucket cleanup outside the API.
type ImageSweepJob struct {
	images *repo.ImageRepo
	store  filestore.Store
}

func NewImageSweepJob(images *repo.ImageRepo, store filestore.Store) *ImageSweepJob {
	return &ImageSweepJob{images: images, store: store}
}

func (j *ImageSweepJob) Name() string {
	return "image_sweep"
}

func (j *ImageSweepJob) Run(ctx context.Context) error {
	if j.images == nil || j.store == nil {
		return nil
	}
	var offset uint
	var swept int
	for {
		page, err := j.images.ListPage(ctx, imageSweepPageSize, offset)
		if err != nil {
			return err
		}
		for _, image := range page {
			r, err := j.store.Open(ctx, image.Path)
			if err == nil {
				_ = r.Close()
				continue
			}
			if !errors.Is(err, fs.ErrNotExist) {
				// transient storage errors are not proof the object is gone
				continue
			}
			if err := j.images.Delete(ctx, image.UserID, image.ID); err != nil {
				logutil.GetLogger(ctx).Warn("drop orphaned image row failed",
					zap.String("image_id", image.ID), zap.Error(err))
				continue
			}
			swept++
		}
		if len(page) < imageSweepPageSize {
			break
		}
		offset += imageSweepPageSize
	}
	if swept > 0 {
		logutil.GetLogger(ctx).Info("swept orphaned image rows", zap.Int("count", swept))
	}
	return nil
}
