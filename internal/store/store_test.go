package store

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangasync/internal/chapters"
)

func TestCheckRecord(t *testing.T) {
	tests := []struct {
		name  string
		rec   chapters.Record
		valid bool
	}{
		{"ok", chapters.Record{Key: "k", ImageURLs: []string{"a"}, PageCount: 1}, true},
		{"no_key", chapters.Record{ImageURLs: []string{"a"}, PageCount: 1}, false},
		{"zero_pages", chapters.Record{Key: "k"}, false},
		{"count_mismatch", chapters.Record{Key: "k", ImageURLs: []string{"a", "b"}, PageCount: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRecord(tt.rec)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPgx5DSN(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/manga", pgx5DSN("postgres://u:p@db:5432/manga"))
	assert.Equal(t, "pgx5://u@db/manga", pgx5DSN("postgresql://u@db/manga"))
	assert.Equal(t, "pgx5://already", pgx5DSN("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/000001_manga_chapters.up.sql")
	assert.Contains(t, files, "migrations/000001_manga_chapters.down.sql")
}
