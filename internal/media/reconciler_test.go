package media

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
)

func newImageTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Image{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Mirror the partial unique indexes the production migration declares so
	// the suite runs under the same constraints.
	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_owner_sort_order
			ON images (owner_type, owner_id, sort_order)
			WHERE deleted_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_owner_primary
			ON images (owner_type, owner_id)
			WHERE is_primary AND deleted_at IS NULL`,
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create index: %v", err)
		}
	}
	return conn
}

func newTestReconciler(t *testing.T, conn *gorm.DB) (Reconciler, *imageRepository) {
	t.Helper()
	repo := NewImageRepository(conn)
	rec, err := NewReconciler(repo)
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	return rec, repo
}

func inTx(t *testing.T, conn *gorm.DB, fn func(tx *gorm.DB) error) {
	t.Helper()
	if err := conn.Transaction(fn); err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func ownerImages(t *testing.T, repo *imageRepository, ownerID int64) []models.Image {
	t.Helper()
	images, err := repo.FindByOwner(context.Background(), nil, enums.OwnerTypeEvent, ownerID, false)
	if err != nil {
		t.Fatalf("find by owner: %v", err)
	}
	return images
}

func ref(key string) ImageRef {
	return ImageRef{Bucket: "images", FileKey: key}
}

func assertOrdered(t *testing.T, images []models.Image, keys ...string) {
	t.Helper()
	if len(images) != len(keys) {
		t.Fatalf("expected %d images, got %d", len(keys), len(images))
	}
	for i, key := range keys {
		img := images[i]
		if img.FileKey != key {
			t.Fatalf("position %d: expected %q, got %q", i, key, img.FileKey)
		}
		if img.SortOrder != i {
			t.Fatalf("%s: expected sort order %d, got %d", key, i, img.SortOrder)
		}
		if img.IsPrimary != (i == 0) {
			t.Fatalf("%s: primary flag mismatch at position %d", key, i)
		}
	}
	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
		}
	}
	if len(images) > 0 && primaries != 1 {
		t.Fatalf("expected exactly one primary, got %d", primaries)
	}
}

func TestAttachCreatesOrderedSetWithSinglePrimary(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png"), ref("c.png")})
	})

	assertOrdered(t, ownerImages(t, repo, 1), "a.png", "b.png", "c.png")
}

func TestAttachWithEmptyListIsNoOp(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(context.Background(), tx, enums.OwnerTypeEvent, 1, nil)
	})

	if got := ownerImages(t, repo, 1); len(got) != 0 {
		t.Fatalf("expected no images, got %d", len(got))
	}
}

func TestAttachRequiresTransaction(t *testing.T) {
	conn := newImageTestDB(t)
	rec, _ := newTestReconciler(t, conn)

	err := rec.Attach(context.Background(), nil, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png")})
	if err == nil {
		t.Fatal("expected error without a transaction")
	}
}

func TestReconcileDiffMinimality(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png"), ref("c.png")})
	})

	before := ownerImages(t, repo, 1)
	keptIDs := map[string]int64{}
	for _, img := range before {
		keptIDs[img.FileKey] = img.ID
	}

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("b.png"), ref("c.png"), ref("d.png")})
	})

	after := ownerImages(t, repo, 1)
	assertOrdered(t, after, "b.png", "c.png", "d.png")

	for _, img := range after {
		if img.FileKey == "d.png" {
			continue
		}
		if img.ID != keptIDs[img.FileKey] {
			t.Fatalf("%s: surviving row id changed from %d to %d", img.FileKey, keptIDs[img.FileKey], img.ID)
		}
	}

	var withDeleted []models.Image
	if err := conn.Unscoped().Where("owner_id = ?", 1).Find(&withDeleted).Error; err != nil {
		t.Fatalf("load all: %v", err)
	}
	deleted := 0
	for _, img := range withDeleted {
		if img.DeletedAt.Valid {
			if img.FileKey != "a.png" {
				t.Fatalf("unexpected soft delete of %s", img.FileKey)
			}
			deleted++
		}
	}
	if deleted != 1 {
		t.Fatalf("expected exactly one soft-deleted row, got %d", deleted)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()
	desired := []ImageRef{ref("a.png"), ref("b.png")}

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, desired)
	})
	first := ownerImages(t, repo, 1)

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, desired)
	})
	second := ownerImages(t, repo, 1)

	if len(first) != len(second) {
		t.Fatalf("row count changed from %d to %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("position %d: row id changed from %d to %d", i, first[i].ID, second[i].ID)
		}
	}

	var total int64
	if err := conn.Unscoped().Model(&models.Image{}).Where("owner_id = ?", 1).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("second call must not create or delete rows, found %d total", total)
	}
}

func TestReconcileReorderPromotesNewPrimary(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png")})
	})
	before := ownerImages(t, repo, 1)
	var idB int64
	for _, img := range before {
		if img.FileKey == "b.png" {
			idB = img.ID
		}
	}

	// Drop a, keep b at the head, append c. b inherits the primary slot and
	// keeps its row id.
	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("b.png"), ref("c.png")})
	})

	after := ownerImages(t, repo, 1)
	assertOrdered(t, after, "b.png", "c.png")
	if after[0].ID != idB {
		t.Fatalf("b's row id changed from %d to %d", idB, after[0].ID)
	}
}

func TestReconcileAppendKeepsUniqueSortOrders(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png")})
	})

	// New rows must not land on positions live rows still hold.
	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png"), ref("c.png")})
	})

	assertOrdered(t, ownerImages(t, repo, 1), "a.png", "b.png", "c.png")
}

func TestReconcileSwapsPositionsUnderUniqueSortOrder(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png")})
	})

	// A position swap moves each row onto a slot the other still occupies.
	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("b.png"), ref("a.png")})
	})

	assertOrdered(t, ownerImages(t, repo, 1), "b.png", "a.png")
}

func TestReconcileEmptyDesiredDeletesEverything(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png"), ref("b.png")})
	})

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, nil)
	})

	if got := ownerImages(t, repo, 1); len(got) != 0 {
		t.Fatalf("expected zero live images, got %d", len(got))
	}

	var total int64
	if err := conn.Unscoped().Model(&models.Image{}).Where("owner_id = ? AND deleted_at IS NOT NULL", 1).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected both rows tombstoned, got %d", total)
	}
}

func TestReconcileDedupesDesiredKeepingFirstPosition(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{
			ref("a.png"), ref("b.png"), ref("a.png"),
		})
	})

	assertOrdered(t, ownerImages(t, repo, 1), "a.png", "b.png")
}

func TestReconcileScopesToOwner(t *testing.T) {
	conn := newImageTestDB(t)
	rec, repo := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		if err := rec.Attach(ctx, tx, enums.OwnerTypeEvent, 1, []ImageRef{ref("a.png")}); err != nil {
			return err
		}
		return rec.Attach(ctx, tx, enums.OwnerTypeEvent, 2, []ImageRef{ref("z.png")})
	})

	inTx(t, conn, func(tx *gorm.DB) error {
		return rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 1, nil)
	})

	assertOrdered(t, ownerImages(t, repo, 2), "z.png")
}

func TestReconcileRejectsInvalidOwner(t *testing.T) {
	conn := newImageTestDB(t)
	rec, _ := newTestReconciler(t, conn)
	ctx := context.Background()

	inTx(t, conn, func(tx *gorm.DB) error {
		if err := rec.Reconcile(ctx, tx, enums.OwnerType("gallery"), 1, nil); err == nil {
			t.Fatal("expected error for unknown owner type")
		}
		if err := rec.Reconcile(ctx, tx, enums.OwnerTypeEvent, 0, nil); err == nil {
			t.Fatal("expected error for missing owner id")
		}
		return nil
	})
}
