package pois

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/db/models"
	"github.com/poiquest/poiquest-backend/pkg/enums"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
	"github.com/poiquest/poiquest-backend/pkg/pagination"
)

type passthroughDecorator struct{}

func (passthroughDecorator) DecorateImages(ctx context.Context, images []media.ImageDTO) []media.ImageDTO {
	for i := range images {
		images[i].URL = "https://store.test/" + images[i].Bucket + "/" + images[i].FileKey
	}
	return images
}

func newPOITestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.POI{}, &models.Image{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Same partial unique indexes the production migration declares.
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

	client, err := db.NewWithConn(conn)
	if err != nil {
		t.Fatalf("wrap conn: %v", err)
	}
	imageRepo := media.NewImageRepository(conn)
	reconciler, err := media.NewReconciler(imageRepo)
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:         client,
		Images:     imageRepo,
		Reconciler: reconciler,
		Decorator:  passthroughDecorator{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func basePOIInput(qr string) CreatePOIInput {
	return CreatePOIInput{
		Name:   "Fountain",
		CoordX: 41.38,
		CoordY: 2.17,
		QRCode: qr,
	}
}

func TestCreatePOIWithImages(t *testing.T) {
	svc, _ := newPOITestService(t)
	ctx := context.Background()

	input := basePOIInput("qr-001")
	input.Images = []ImageRefInput{
		{Bucket: "images", FileKey: "front.png"},
		{Bucket: "images", FileKey: "back.png"},
	}

	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != enums.POIStatusActive {
		t.Fatalf("expected active default, got %s", created.Status)
	}
	if len(created.Images) != 2 || !created.Images[0].IsPrimary {
		t.Fatal("expected ordered images with a primary head")
	}
}

func TestCreatePOIDuplicateQRCodeConflicts(t *testing.T) {
	svc, _ := newPOITestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, basePOIInput("qr-001")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, basePOIInput("qr-001"))
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetPOIByQRCode(t *testing.T) {
	svc, _ := newPOITestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, basePOIInput("qr-scan"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByQRCode(ctx, "qr-scan")
	if err != nil {
		t.Fatalf("get by qr: %v", err)
	}
	if got.ID != created.ID {
		t.Fatal("qr lookup returned the wrong poi")
	}

	_, err = svc.GetByQRCode(ctx, "qr-unknown")
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdatePOIReconcilesImagesOnlyWhenProvided(t *testing.T) {
	svc, _ := newPOITestService(t)
	ctx := context.Background()

	input := basePOIInput("qr-001")
	input.Images = []ImageRefInput{{Bucket: "images", FileKey: "a.png"}}
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Old Fountain"
	updated, err := svc.Update(ctx, created.ID, UpdatePOIInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Images) != 1 {
		t.Fatal("image set must be untouched without an images field")
	}

	desired := []ImageRefInput{
		{Bucket: "images", FileKey: "b.png"},
		{Bucket: "images", FileKey: "a.png"},
	}
	updated, err = svc.Update(ctx, created.ID, UpdatePOIInput{Images: &desired})
	if err != nil {
		t.Fatalf("update images: %v", err)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(updated.Images))
	}
	if updated.Images[0].FileKey != "b.png" || !updated.Images[0].IsPrimary {
		t.Fatal("b must lead the reordered set")
	}
}

func TestDeletePOICascadesImages(t *testing.T) {
	svc, conn := newPOITestService(t)
	ctx := context.Background()

	input := basePOIInput("qr-001")
	input.Images = []ImageRefInput{{Bucket: "images", FileKey: "a.png"}}
	created, err := svc.Create(ctx, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = svc.GetByUUID(ctx, created.ID)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	var live int64
	if err := conn.Model(&models.Image{}).Count(&live).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if live != 0 {
		t.Fatalf("expected all images tombstoned, got %d live", live)
	}
}

func TestListPOIsPaginates(t *testing.T) {
	svc, _ := newPOITestService(t)
	ctx := context.Background()

	for _, qr := range []string{"qr-1", "qr-2", "qr-3"} {
		if _, err := svc.Create(ctx, basePOIInput(qr)); err != nil {
			t.Fatalf("create %s: %v", qr, err)
		}
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d items", len(page.Items))
	}

	rest, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(rest.Items) != 1 || rest.NextCursor != "" {
		t.Fatalf("expected final page of 1, got %d items", len(rest.Items))
	}
}
