package chapters

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/brogergvhs/mangasync/internal/slug"
)

// Job is one ingestion request: a source page plus the chapter it becomes.
type Job struct {
	SourceURL string
	Title     string
	ChapterID string
}

func (j Job) Validate() error {
	if strings.TrimSpace(j.SourceURL) == "" {
		return errors.Mark(errors.New("source url is required"), ErrInvalidJob)
	}

	u, err := url.ParseRequestURI(j.SourceURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Mark(errors.Newf("source url %q is not a valid http(s) url", j.SourceURL), ErrInvalidJob)
	}

	if strings.TrimSpace(j.ChapterID) == "" {
		return errors.Mark(errors.New("chapter id is required"), ErrInvalidJob)
	}
	// The chapter id is one segment of the object key.
	if strings.ContainsAny(j.ChapterID, `/\`) || j.ChapterID == "." || j.ChapterID == ".." {
		return errors.Mark(errors.Newf("chapter id %q must not contain path separators", j.ChapterID), ErrInvalidJob)
	}
	if strings.TrimSpace(j.Title) == "" {
		return errors.Mark(errors.New("title is required"), ErrInvalidJob)
	}

	return nil
}

func (j Job) Key() string {
	return slug.Key(j.Title, j.ChapterID)
}

// PagePath is the object key of page index (1-based) inside the chapter.
func (j Job) PagePath(index int) string {
	return fmt.Sprintf("%s/%s/%03d.jpg", slug.Segment(j.Title), j.ChapterID, index)
}

func (j Job) String() string {
	return fmt.Sprintf("%s ch.%s", j.Title, j.ChapterID)
}

// PageResult is the outcome of uploading one page. Exactly one of URL and
// Err is set.
type PageResult struct {
	Index int
	Ref   string
	URL   string
	Bytes int64
	Err   error
}

func (p PageResult) OK() bool {
	return p.Err == nil && p.URL != ""
}

// Record is the persisted metadata for an ingested chapter.
type Record struct {
	Key       string
	Title     string
	ChapterID string
	SourceURL string
	ImageURLs []string
	PageCount int
	CreatedAt time.Time
}

// NewRecord builds the record for the successful pages of a job, keeping
// their relative order.
func NewRecord(job Job, pages []PageResult) Record {
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.OK() {
			urls = append(urls, p.URL)
		}
	}

	return Record{
		Key:       job.Key(),
		Title:     job.Title,
		ChapterID: job.ChapterID,
		SourceURL: job.SourceURL,
		ImageURLs: urls,
		PageCount: len(urls),
	}
}

// Outcome is the terminal result of one job.
type Outcome struct {
	Success   bool
	Message   string
	SampleURL string

	Key      string
	Total    int
	Uploaded int
	Failed   []int
}

func Failure(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}
