package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(embedded, migrationsDir+"/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded migrations")
	}

	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(embedded, name)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			body := string(data)
			if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
				t.Errorf("%s is missing goose annotations", name)
			}
		})
	}
}
