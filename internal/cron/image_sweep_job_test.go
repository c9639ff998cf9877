package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/logger"
)

type fakeTombstonedImagesRepo struct {
	rows        []models.Image
	liveKeys    map[string]struct{}
	lastCutoff  time.Time
	lastLimit   int
	deletedIDs  []int64
	hardDelErr  error
	findErr     error
	deletedRows int64
}

func (f *fakeTombstonedImagesRepo) FindTombstonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Image, error) {
	f.lastCutoff = cutoff
	f.lastLimit = limit
	return f.rows, f.findErr
}

func (f *fakeTombstonedImagesRepo) HasLiveByLocator(ctx context.Context, bucket, fileKey string) (bool, error) {
	_, live := f.liveKeys[bucket+"/"+fileKey]
	return live, nil
}

func (f *fakeTombstonedImagesRepo) HardDeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	f.deletedIDs = ids
	if f.hardDelErr != nil {
		return 0, f.hardDelErr
	}
	f.deletedRows = int64(len(ids))
	return f.deletedRows, nil
}

type fakeObjectDeleter struct {
	failKeys map[string]struct{}
	deleted  []string
}

func (f *fakeObjectDeleter) Delete(ctx context.Context, bucket, key string) error {
	if _, fail := f.failKeys[key]; fail {
		return errors.New("store unavailable")
	}
	f.deleted = append(f.deleted, bucket+"/"+key)
	return nil
}

func newImageSweepJob(t *testing.T, repo *fakeTombstonedImagesRepo, store *fakeObjectDeleter) *imageSweepJob {
	t.Helper()
	jobIface, err := NewImageSweepJob(ImageSweepJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Images:    repo,
		Store:     store,
		Retention: 720 * time.Hour,
		BatchSize: 50,
	})
	if err != nil {
		t.Fatalf("NewImageSweepJob: %v", err)
	}
	return jobIface.(*imageSweepJob)
}

func TestImageSweepRemovesObjectsThenRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	repo := &fakeTombstonedImagesRepo{rows: []models.Image{
		{ID: 1, Bucket: "images", FileKey: "a.png"},
		{ID: 2, Bucket: "images", FileKey: "b.png"},
	}}
	store := &fakeObjectDeleter{}
	job := newImageSweepJob(t, repo, store)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-720 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.lastLimit != 50 {
		t.Fatalf("expected batch limit 50, got %d", repo.lastLimit)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected 2 object deletes, got %d", len(store.deleted))
	}
	if len(repo.deletedIDs) != 2 {
		t.Fatalf("expected 2 rows hard-deleted, got %d", len(repo.deletedIDs))
	}
}

func TestImageSweepKeepsRowsWhoseObjectDeleteFailed(t *testing.T) {
	repo := &fakeTombstonedImagesRepo{rows: []models.Image{
		{ID: 1, Bucket: "images", FileKey: "a.png"},
		{ID: 2, Bucket: "images", FileKey: "stuck.png"},
	}}
	store := &fakeObjectDeleter{failKeys: map[string]struct{}{"stuck.png": {}}}
	job := newImageSweepJob(t, repo, store)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error for the failed object")
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != 1 {
		t.Fatalf("only the swept row may be hard-deleted, got %v", repo.deletedIDs)
	}
}

func TestImageSweepSparesObjectsStillReferencedByLiveRows(t *testing.T) {
	repo := &fakeTombstonedImagesRepo{
		rows: []models.Image{
			{ID: 1, Bucket: "images", FileKey: "readded.png"},
			{ID: 2, Bucket: "images", FileKey: "gone.png"},
		},
		liveKeys: map[string]struct{}{"images/readded.png": {}},
	}
	store := &fakeObjectDeleter{}
	job := newImageSweepJob(t, repo, store)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The shared object stays in storage; only the unreferenced one goes.
	if len(store.deleted) != 1 || store.deleted[0] != "images/gone.png" {
		t.Fatalf("expected only images/gone.png deleted, got %v", store.deleted)
	}
	// Both rows are stale tombstones and may be removed.
	if len(repo.deletedIDs) != 2 {
		t.Fatalf("expected both rows hard-deleted, got %v", repo.deletedIDs)
	}
}

func TestImageSweepNoCandidatesIsClean(t *testing.T) {
	repo := &fakeTombstonedImagesRepo{}
	store := &fakeObjectDeleter{}
	job := newImageSweepJob(t, repo, store)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.deletedIDs != nil {
		t.Fatal("no rows should be touched when nothing is tombstoned")
	}
}
