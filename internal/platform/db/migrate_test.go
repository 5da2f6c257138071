package db

import (
	"testing"
	"testing/fstest"

	"onehr/migrations"
)

func TestMigrationFilesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_more.sql": {Data: []byte("SELECT 1")},
		"0001_init.sql": {Data: []byte("SELECT 1")},
		"README.md":     {Data: []byte("docs")},
		"nested/x.sql":  {Data: []byte("SELECT 1")},
	}
	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0] != "0001_init.sql" || files[1] != "0002_more.sql" {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 || files[0] != "0001_init.sql" {
		t.Fatalf("expected embedded init migration, got %v", files)
	}
}
