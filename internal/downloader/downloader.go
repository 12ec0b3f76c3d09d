package downloader

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/storage"
)

const (
	// ContentType is forced for every page regardless of the source format.
	ContentType = "image/jpeg"

	fetchTimeout = 30 * time.Second
	maxPageBytes = 64 << 20
)

// ObjectStore is the write side of the target storage.
type ObjectStore interface {
	Put(ctx context.Context, obj storage.Object) (string, error)
}

type Downloader struct {
	client   *http.Client
	store    ObjectStore
	log      interface{ Debugf(string, ...any) }
	newToken func() string
}

func New(c *http.Client, store ObjectStore, log interface{ Debugf(string, ...any) }) *Downloader {
	return &Downloader{
		client:   c,
		store:    store,
		log:      log,
		newToken: uuid.NewString,
	}
}

// Upload fetches page index (1-based) of job from ref and stores it. Failures
// are reported in the result and never escape as errors or panics.
func (d *Downloader) Upload(ctx context.Context, job chapters.Job, index int, ref string) (res chapters.PageResult) {
	res = chapters.PageResult{Index: index, Ref: ref}

	defer func() {
		if r := recover(); r != nil {
			res.URL = ""
			res.Err = errors.Mark(errors.Newf("page %d: panic: %v", index, r), chapters.ErrPageUpload)
		}
	}()

	src := resolve(job.SourceURL, ref)

	data, err := d.download(ctx, src, job.SourceURL)
	if err != nil {
		res.Err = errors.Mark(errors.Wrapf(err, "page %d: fetch %s", index, src), chapters.ErrPageUpload)
		return res
	}
	res.Bytes = int64(len(data))

	key := job.PagePath(index)
	publicURL, err := d.store.Put(ctx, storage.Object{
		Key:         key,
		Data:        data,
		ContentType: ContentType,
		Public:      true,
		Token:       d.newToken(),
	})
	if err != nil {
		res.Err = errors.Mark(errors.Wrapf(err, "page %d: store %s", index, key), chapters.ErrPageUpload)
		return res
	}

	if d.log != nil {
		d.log.Debugf("page %d stored at %s (%d bytes)", index, key, len(data))
	}

	res.URL = publicURL
	return res
}

func (d *Downloader) download(ctx context.Context, u, referer string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("HTTP %d", resp.StatusCode)
	}

	// Image hosts label bytes loosely (binary/octet-stream, text/plain).
	// Only an HTML body is certainly not a page image.
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt == "text/html" || mt == "application/xhtml+xml" {
			return nil, errors.Newf("unexpected MIME: %s", ct)
		}
		if !strings.HasPrefix(mt, "image/") && d.log != nil {
			d.log.Debugf("%s served as %s, storing anyway", u, ct)
		}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 && resp.ContentLength <= maxPageBytes {
		buf.Grow(int(resp.ContentLength))
	}

	n, err := copyLimited(&buf, resp.Body, maxPageBytes)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("empty body")
	}

	return buf.Bytes(), nil
}

// resolve makes ref absolute against the chapter page. Absolute references
// are returned unchanged.
func resolve(chapterURL, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u == nil {
		return raw
	}

	if u.IsAbs() {
		return u.String()
	}

	base, err := url.Parse(chapterURL)
	if err != nil || base == nil {
		return raw
	}

	return base.ResolveReference(u).String()
}
