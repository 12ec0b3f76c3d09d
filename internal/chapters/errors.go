package chapters

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidJob marks a job rejected before any network access.
	ErrInvalidJob = errors.New("invalid job")
	// ErrNoImages marks an extraction that produced zero references.
	ErrNoImages = errors.New("no images found")
	// ErrPageUpload marks a single page that could not be fetched or stored.
	ErrPageUpload = errors.New("page upload failed")
	// ErrCommit marks a failed metadata write after pages were uploaded.
	ErrCommit = errors.New("chapter commit failed")
	// ErrJobLocked is returned when another job holds the chapter key.
	ErrJobLocked = errors.New("chapter job already running")
)
