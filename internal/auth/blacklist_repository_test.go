package auth

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/poiquest/poiquest-backend/pkg/db/models"
)

func newBlacklistTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.BlacklistedToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestBlacklistSaveAndLookup(t *testing.T) {
	repo := NewBlacklistRepository(newBlacklistTestDB(t))
	ctx := context.Background()

	entry := &models.BlacklistedToken{
		UserID:    1,
		Token:     "token-abc",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := repo.Save(ctx, entry); err != nil {
		t.Fatalf("save: %v", err)
	}

	revoked, err := repo.IsBlacklisted(ctx, "token-abc")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !revoked {
		t.Fatal("expected token to be blacklisted")
	}

	revoked, err = repo.IsBlacklisted(ctx, "token-other")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if revoked {
		t.Fatal("lookup must be an exact string match")
	}
}

func TestBlacklistSaveDuplicateIsIdempotent(t *testing.T) {
	repo := NewBlacklistRepository(newBlacklistTestDB(t))
	ctx := context.Background()

	first := &models.BlacklistedToken{UserID: 1, Token: "token-abc", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	dup := &models.BlacklistedToken{UserID: 1, Token: "token-abc", ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Save(ctx, dup); err != nil {
		t.Fatalf("duplicate save must not error: %v", err)
	}

	var count int64
	if err := repo.db.Model(&models.BlacklistedToken{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestBlacklistPruneExpired(t *testing.T) {
	repo := NewBlacklistRepository(newBlacklistTestDB(t))
	ctx := context.Background()
	now := time.Now()

	rows := []*models.BlacklistedToken{
		{UserID: 1, Token: "dead-1", ExpiresAt: now.Add(-time.Hour)},
		{UserID: 1, Token: "dead-2", ExpiresAt: now.Add(-time.Minute)},
		{UserID: 2, Token: "alive", ExpiresAt: now.Add(time.Hour)},
	}
	for _, row := range rows {
		if err := repo.Save(ctx, row); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	pruned, err := repo.PruneExpired(ctx, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 pruned rows, got %d", pruned)
	}

	revoked, err := repo.IsBlacklisted(ctx, "alive")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !revoked {
		t.Fatal("unexpired row must survive the prune")
	}
}
