package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/storage"
	"github.com/brogergvhs/mangasync/internal/util"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string]storage.Object
	err     error
	panics  bool
}

func (m *memStore) Put(_ context.Context, obj storage.Object) (string, error) {
	if m.panics {
		panic("bucket handle is nil")
	}
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string]storage.Object{}
	}
	m.objects[obj.Key] = obj
	return "https://cdn.test/" + obj.Key, nil
}

func imageServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var referer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".webp"), strings.HasSuffix(r.URL.Path, ".jpg"):
			referer = r.Header.Get("Referer")
			w.Header().Set("Content-Type", "image/webp")
			_, _ = w.Write([]byte("\x00\x01binary\xff"))
		case strings.HasSuffix(r.URL.Path, ".html"):
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &referer
}

func newDownloader(t *testing.T, store ObjectStore) *Downloader {
	t.Helper()
	c, err := util.NewHTTPClient(util.HTTPClientOptions{})
	require.NoError(t, err)
	d := New(c, store, nil)
	n := 0
	d.newToken = func() string {
		n++
		return "token-" + string(rune('0'+n))
	}
	return d
}

func TestUploadStoresPage(t *testing.T) {
	srv, referer := imageServer(t)
	store := &memStore{}
	d := newDownloader(t, store)
	job := chapters.Job{SourceURL: srv.URL + "/series/chapter-45/", Title: "Legendary Surgeon!!", ChapterID: "45"}

	res := d.Upload(context.Background(), job, 7, srv.URL+"/img/7.webp")

	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, 7, res.Index)
	assert.True(t, strings.HasSuffix(res.URL, "/007.jpg"))
	assert.Equal(t, "https://cdn.test/legendary-surgeon/45/007.jpg", res.URL)
	assert.Equal(t, job.SourceURL, *referer)

	obj := store.objects["legendary-surgeon/45/007.jpg"]
	assert.Equal(t, []byte("\x00\x01binary\xff"), obj.Data)
	assert.Equal(t, ContentType, obj.ContentType)
	assert.True(t, obj.Public)
	assert.Equal(t, "token-1", obj.Token)
	assert.EqualValues(t, len(obj.Data), res.Bytes)
}

func TestUploadResolvesRelativeReference(t *testing.T) {
	srv, _ := imageServer(t)
	store := &memStore{}
	d := newDownloader(t, store)
	job := chapters.Job{SourceURL: srv.URL + "/series/chapter-1/", Title: "T", ChapterID: "1"}

	res := d.Upload(context.Background(), job, 1, "a.jpg")

	require.True(t, res.OK(), "%v", res.Err)
	assert.Contains(t, store.objects, "t/1/001.jpg")
}

func TestUploadAcceptsLooselyLabelledImages(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")

	for _, ct := range []string{"binary/octet-stream", "application/octet-stream", "text/plain", "image/jpeg"} {
		t.Run(ct, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", ct)
				_, _ = w.Write(jpeg)
			}))
			defer srv.Close()

			store := &memStore{}
			d := newDownloader(t, store)
			job := chapters.Job{SourceURL: srv.URL + "/c/", Title: "T", ChapterID: "1"}

			res := d.Upload(context.Background(), job, 1, srv.URL+"/p1")

			require.True(t, res.OK(), "%v", res.Err)
			assert.Equal(t, jpeg, store.objects["t/1/001.jpg"].Data)
			assert.Equal(t, ContentType, store.objects["t/1/001.jpg"].ContentType)
		})
	}
}

func TestUploadFailuresArePageLocal(t *testing.T) {
	srv, _ := imageServer(t)
	job := chapters.Job{SourceURL: srv.URL + "/c/", Title: "T", ChapterID: "1"}

	tests := []struct {
		name  string
		store *memStore
		ref   string
	}{
		{"not_found", &memStore{}, srv.URL + "/missing.png"},
		{"not_an_image", &memStore{}, srv.URL + "/page.html"},
		{"unreachable", &memStore{}, "http://127.0.0.1:1/x.jpg"},
		{"store_error", &memStore{err: errors.New("quota exceeded")}, srv.URL + "/a.jpg"},
		{"store_panic", &memStore{panics: true}, srv.URL + "/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDownloader(t, tt.store)

			res := d.Upload(context.Background(), job, 3, tt.ref)

			assert.False(t, res.OK())
			assert.Empty(t, res.URL)
			assert.Equal(t, 3, res.Index)
			assert.True(t, errors.Is(res.Err, chapters.ErrPageUpload))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://cdn.site/x.jpg", resolve("https://site/ch/1/", "https://cdn.site/x.jpg"))
	assert.Equal(t, "https://site/ch/1/p.jpg", resolve("https://site/ch/1/", "p.jpg"))
	assert.Equal(t, "https://site/img/p.jpg", resolve("https://site/ch/1/", "/img/p.jpg"))
	assert.Equal(t, "https://img.site/p.jpg", resolve("https://site/ch/1/", "//img.site/p.jpg"))
}

func TestCopyLimited(t *testing.T) {
	var sb strings.Builder
	n, err := copyLimited(&sb, strings.NewReader("hello"), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	_, err = copyLimited(&sb, strings.NewReader(strings.Repeat("x", 20)), 10)
	assert.Error(t, err)
}
