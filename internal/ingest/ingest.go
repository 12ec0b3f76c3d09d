// Package ingest runs one chapter job end to end: scrape the source page,
// upload every page in order, then commit the chapter record.
//
// Run never returns an error. Every path, including panics raised by a
// collaborator, ends in a chapters.Outcome.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/lock"
	"github.com/brogergvhs/mangasync/internal/providers"
)

const DefaultPageDelay = 500 * time.Millisecond

type Uploader interface {
	Upload(ctx context.Context, job chapters.Job, index int, ref string) chapters.PageResult
}

// RecordStore upserts a chapter record and returns the store-assigned
// creation time.
type RecordStore interface {
	Save(ctx context.Context, rec chapters.Record) (time.Time, error)
}

// Observer receives progress while a job runs. Calls happen on the job's
// goroutine.
type Observer interface {
	OnExtracted(total int)
	OnPage(p chapters.PageResult)
}

type Logger interface {
	Debugf(string, ...any)
	Infof(string, ...any)
	Errorf(string, ...any)
}

// Deps are the long-lived clients shared by every job.
type Deps struct {
	Extractor providers.Scraper
	Uploader  Uploader
	Store     RecordStore
	Locker    lock.Locker
	Log       Logger
}

type Options struct {
	// PageDelay is the fixed pause after every upload attempt.
	PageDelay time.Duration
	// MinPages is the number of uploaded pages required to commit.
	MinPages int
	// Sleep replaces time.Sleep, mainly for tests.
	Sleep func(time.Duration)
}

type Orchestrator struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Orchestrator {
	if opts.MinPages < 1 {
		opts.MinPages = 1
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocal()
	}
	if deps.Log == nil {
		deps.Log = nopLogger{}
	}

	return &Orchestrator{deps: deps, opts: opts}
}

// Run executes job. obs may be nil.
func (o *Orchestrator) Run(ctx context.Context, job chapters.Job, obs Observer) (out chapters.Outcome) {
	log := o.deps.Log

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("job %s: unexpected failure: %v", job, r)
			out = chapters.Failure("unexpected error: %v", r)
			out.Key = job.Key()
		}
	}()

	if err := job.Validate(); err != nil {
		return chapters.Failure("invalid job: %v", err)
	}

	key := job.Key()

	release, err := o.deps.Locker.Acquire(ctx, key)
	if err != nil {
		log.Errorf("job %s: %v", job, err)
		out = chapters.Failure("a job for %s is already running", key)
		if !errors.Is(err, chapters.ErrJobLocked) {
			out.Message = fmt.Sprintf("could not lock %s: %v", key, err)
		}
		out.Key = key
		return out
	}
	defer release()

	out = o.run(ctx, job, obs)
	out.Key = key
	return out
}

func (o *Orchestrator) run(ctx context.Context, job chapters.Job, obs Observer) chapters.Outcome {
	log := o.deps.Log

	log.Infof("job %s: scraping %s", job, job.SourceURL)
	refs, err := o.deps.Extractor.GetImages(ctx, job.SourceURL)
	if err != nil || len(refs) == 0 {
		if err == nil {
			err = chapters.ErrNoImages
		}
		log.Errorf("job %s: scrape failed: %v", job, err)
		if obs != nil {
			obs.OnExtracted(0)
		}
		if errors.Is(err, chapters.ErrNoImages) {
			hint := errors.FlattenHints(err)
			if hint == "" {
				hint = "check the selector and the site"
			}
			return chapters.Failure("no images found on %s; %s", job.SourceURL, hint)
		}
		return chapters.Failure("no images found: could not read %s: %v", job.SourceURL, err)
	}

	total := len(refs)
	log.Infof("job %s: found %d images, uploading", job, total)
	if obs != nil {
		obs.OnExtracted(total)
	}

	pages := make([]chapters.PageResult, 0, total)
	var failed []int
	for i, ref := range refs {
		idx := i + 1

		res := o.deps.Uploader.Upload(ctx, job, idx, ref)
		res.Index = idx
		if res.OK() {
			log.Debugf("job %s: page %d/%d uploaded", job, idx, total)
		} else {
			if res.Err == nil {
				res.Err = errors.Mark(errors.Newf("page %d: no url returned", idx), chapters.ErrPageUpload)
			}
			failed = append(failed, idx)
			log.Errorf("job %s: page %d/%d skipped: %v", job, idx, total, res.Err)
		}
		pages = append(pages, res)

		if obs != nil {
			obs.OnPage(res)
		}

		o.opts.Sleep(o.opts.PageDelay)
	}

	rec := chapters.NewRecord(job, pages)
	out := chapters.Outcome{
		Total:    total,
		Uploaded: rec.PageCount,
		Failed:   failed,
	}

	if rec.PageCount < o.opts.MinPages {
		log.Errorf("job %s: only %d of %d pages uploaded, nothing committed", job, rec.PageCount, total)
		if rec.PageCount == 0 {
			out.Message = fmt.Sprintf("no pages uploaded (0 of %d)", total)
		} else {
			out.Message = fmt.Sprintf("only %d of %d pages uploaded, %d required; nothing committed", rec.PageCount, total, o.opts.MinPages)
		}
		return out
	}

	createdAt, err := o.deps.Store.Save(ctx, rec)
	if err != nil {
		err = errors.Mark(err, chapters.ErrCommit)
		log.Errorf("job %s: commit failed, %d uploaded pages are orphaned: %v", job, rec.PageCount, err)
		out.Message = fmt.Sprintf("uploaded %d of %d pages but saving the chapter failed: %s", rec.PageCount, total, describe(err))
		return out
	}

	log.Infof("job %s: committed %s with %d pages at %s", job, rec.Key, rec.PageCount, createdAt.Format(time.RFC3339))

	out.Success = true
	out.SampleURL = rec.ImageURLs[0]
	out.Message = fmt.Sprintf("uploaded %d of %d pages", rec.PageCount, total)
	if len(failed) > 0 {
		out.Message += fmt.Sprintf(" (skipped %s)", joinInts(failed))
	}

	return out
}

func describe(err error) string {
	msg := err.Error()
	if hints := errors.FlattenHints(err); hints != "" {
		msg += "; " + hints
	}
	return msg
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
