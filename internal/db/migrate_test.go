package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("expected users and password_hash migrations, got %v", files)
	}

	for _, f := range files {
		b, err := fs.ReadFile(migrations, f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if !strings.Contains(string(b), "-- +goose Up") || !strings.Contains(string(b), "-- +goose Down") {
			t.Fatalf("%s is missing goose annotations", f)
		}
	}
}

func TestUsersMigrationHasCaseInsensitiveUniqueEmail(t *testing.T) {
	b, err := fs.ReadFile(migrations, "migrations/00001_create_users.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))") {
		t.Fatalf("users migration must enforce unique lower(email)")
	}
}
