package chapters

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name  string
		job   Job
		valid bool
	}{
		{"ok", Job{SourceURL: "https://example.com/ch-45/", Title: "Legendary Surgeon", ChapterID: "45"}, true},
		{"empty_url", Job{Title: "x", ChapterID: "1"}, false},
		{"relative_url", Job{SourceURL: "/ch-45", Title: "x", ChapterID: "1"}, false},
		{"ftp_url", Job{SourceURL: "ftp://example.com/a", Title: "x", ChapterID: "1"}, false},
		{"no_chapter", Job{SourceURL: "https://example.com", Title: "x", ChapterID: " "}, false},
		{"no_title", Job{SourceURL: "https://example.com", ChapterID: "1"}, false},
		{"dotdot_chapter", Job{SourceURL: "https://example.com", Title: "x", ChapterID: ".."}, false},
		{"dot_chapter", Job{SourceURL: "https://example.com", Title: "x", ChapterID: "."}, false},
		{"chapter_escapes_title", Job{SourceURL: "https://example.com", Title: "x", ChapterID: "../../other-manga/1"}, false},
		{"chapter_with_slash", Job{SourceURL: "https://example.com", Title: "x", ChapterID: "45/../../x"}, false},
		{"chapter_with_backslash", Job{SourceURL: "https://example.com", Title: "x", ChapterID: `45\x`}, false},
		{"decimal_chapter", Job{SourceURL: "https://example.com", Title: "x", ChapterID: "28.5"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidJob))
		})
	}
}

func TestJobPagePath(t *testing.T) {
	job := Job{SourceURL: "https://example.com", Title: "Legendary Surgeon!!", ChapterID: "45"}

	assert.Equal(t, "legendary-surgeon/45/007.jpg", job.PagePath(7))
	assert.Equal(t, "legendary-surgeon/45/120.jpg", job.PagePath(120))

	dotted := Job{SourceURL: "https://example.com", Title: "Legendary Surgeon", ChapterID: "45..1"}
	assert.Equal(t, "legendary-surgeon/45..1/007.jpg", dotted.PagePath(7))
	assert.Equal(t, "legendary-surgeon-45", job.Key())
}

func TestNewRecordKeepsSuccessfulPagesInOrder(t *testing.T) {
	job := Job{SourceURL: "https://example.com/c", Title: "T", ChapterID: "2"}
	pages := []PageResult{
		{Index: 1, URL: "u1"},
		{Index: 2, Err: ErrPageUpload},
		{Index: 3, URL: "u3"},
	}

	rec := NewRecord(job, pages)

	assert.Equal(t, []string{"u1", "u3"}, rec.ImageURLs)
	assert.Equal(t, 2, rec.PageCount)
	assert.Equal(t, "t-2", rec.Key)
	assert.Equal(t, job.SourceURL, rec.SourceURL)
}
