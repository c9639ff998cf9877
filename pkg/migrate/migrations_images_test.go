package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImagesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_images.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no images migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS images",
		"CHECK (owner_type IN ('event', 'poi'))",
		"CHECK (sort_order >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_images_owner_sort_order",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_images_owner_primary",
		"WHERE deleted_at IS NULL",
		"DROP TABLE IF EXISTS images",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
