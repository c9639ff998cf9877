package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

const (
	defaultImageRetention  = 30 * 24 * time.Hour
	defaultImageSweepBatch = 100
)

type tombstonedImagesRepo interface {
	FindTombstonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Image, error)
	HasLiveByLocator(ctx context.Context, bucket, fileKey string) (bool, error)
	HardDeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

type objectDeleter interface {
	Delete(ctx context.Context, bucket, key string) error
}

// ImageSweepJobParams configure the tombstoned image sweep.
type ImageSweepJobParams struct {
	Logger    *logger.Logger
	Images    tombstonedImagesRepo
	Store     objectDeleter
	Retention time.Duration
	BatchSize int
}

// NewImageSweepJob builds the job that garbage-collects soft-deleted images:
// objects are removed from storage first, then the rows for good. Rows whose
// object delete failed are kept for the next cycle.
func NewImageSweepJob(params ImageSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Images == nil {
		return nil, fmt.Errorf("image repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultImageRetention
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultImageSweepBatch
	}
	return &imageSweepJob{
		logg:      params.Logger,
		images:    params.Images,
		store:     params.Store,
		retention: retention,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type imageSweepJob struct {
	logg      *logger.Logger
	images    tombstonedImagesRepo
	store     objectDeleter
	retention time.Duration
	batch     int
	now       func() time.Time
}

func (j *imageSweepJob) Name() string { return "image-tombstone-sweep" }

func (j *imageSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	rows, err := j.images.FindTombstonedBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("load tombstoned images: %w", err)
	}
	if len(rows) == 0 {
		j.logg.Info(ctx, "image sweep: nothing to collect")
		return nil
	}

	var errs error
	removable := make([]int64, 0, len(rows))
	for _, img := range rows {
		inUse, err := j.images.HasLiveByLocator(ctx, img.Bucket, img.FileKey)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("check %s/%s: %w", img.Bucket, img.FileKey, err))
			continue
		}
		if inUse {
			// The object was re-added to a live set after this row was
			// tombstoned; only the stale row goes.
			removable = append(removable, img.ID)
			continue
		}
		if err := j.store.Delete(ctx, img.Bucket, img.FileKey); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s/%s: %w", img.Bucket, img.FileKey, err))
			continue
		}
		removable = append(removable, img.ID)
	}

	deleted, err := j.images.HardDeleteByIDs(ctx, removable)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("hard delete rows: %w", err))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"candidates":   len(rows),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "image sweep complete")
	return errs
}
