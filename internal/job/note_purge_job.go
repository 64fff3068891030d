package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notaflow/notaflow/internal/repo"
)

// NotePurgeJob hard-deletes notes that have been in the soft-deleted
// state longer than the retention window.
type NotePurgeJob struct {
	notes     *repo.NoteRepo
	retention time.Duration
}

func NewNotePurgeJob(notes *repo.NoteRepo, retention time.Duration) *NotePurgeJob {
	return &NotePurgeJob{notes: notes, retention: retention}
}

func (j *NotePurgeJob) Name() string {
	return "note_purge"
}

func (j *NotePurgeJob) Run(ctx context.Context) error {
	if j.notes == nil {
		return nil
	}
	retention := j.retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	cutoff := time.Now().Add(-retention).UnixMilli()
	purged, err := j.notes.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		logutil.GetLogger(ctx).Info("purged deleted notes", zap.Int64("count", purged))
	}
	return nil
}
