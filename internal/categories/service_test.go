package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
)

func newCategoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.EventCategory{}, &models.Event{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func buildCategoryService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateAndGetCategory(t *testing.T) {
	svc := buildCategoryService(t, newCategoryTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "  Music  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Music" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected a public id")
	}

	got, err := svc.GetByUUID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Music" {
		t.Fatalf("unexpected name %q", got.Name)
	}
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	svc := buildCategoryService(t, newCategoryTestDB(t))
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCategoryInput{Name: "Music"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, CreateCategoryInput{Name: "Music"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListOrdersByName(t *testing.T) {
	svc := buildCategoryService(t, newCategoryTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"Theatre", "Art", "Music"} {
		if _, err := svc.Create(ctx, CreateCategoryInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	rows, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(rows))
	}
	if rows[0].Name != "Art" || rows[2].Name != "Theatre" {
		t.Fatalf("unexpected order: %q, %q, %q", rows[0].Name, rows[1].Name, rows[2].Name)
	}
}

func TestUpdateCategoryPartial(t *testing.T) {
	svc := buildCategoryService(t, newCategoryTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Music"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "live shows"
	updated, err := svc.Update(ctx, created.ID, UpdateCategoryInput{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Music" {
		t.Fatal("name must be untouched when not provided")
	}
	if updated.Description == nil || *updated.Description != "live shows" {
		t.Fatal("description not applied")
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	conn := newCategoryTestDB(t)
	svc := buildCategoryService(t, conn)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Music"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var row models.EventCategory
	if err := conn.Where("uuid = ?", created.ID).First(&row).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	event := models.Event{Title: "Concert", CategoryID: row.ID}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}

	err = svc.Delete(ctx, created.ID)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict while events exist, got %v", err)
	}

	if err := conn.Delete(&event).Error; err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = svc.GetByUUID(ctx, created.ID)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
