package generic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/util"
)

const readerPage = `<html><body>
<img class="logo" src="/logo.png">
<div class="reading-content">
  <img class="wp-manga-chapter-img" src=" a.jpg ">
  <img class="wp-manga-chapter-img" data-src="b.jpg">
  <img class="wp-manga-chapter-img" src="" data-src="  c.jpg">
  <img class="wp-manga-chapter-img">
</div>
</body></html>`

func newTestServer(t *testing.T, body string, status int) (*httptest.Server, *string) {
	t.Helper()
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &ua
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	c, err := util.NewHTTPClient(util.HTTPClientOptions{})
	require.NoError(t, err)
	return c
}

func TestGetImagesPreservesDocumentOrder(t *testing.T) {
	srv, ua := newTestServer(t, readerPage, http.StatusOK)
	s := NewScraper(newClient(t), ".reading-content img", nil)

	refs, err := s.GetImages(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, refs)
	assert.Equal(t, util.DefaultUserAgent, *ua)
}

func TestGetImagesNoMatches(t *testing.T) {
	srv, _ := newTestServer(t, readerPage, http.StatusOK)
	s := NewScraper(newClient(t), "div.page-break img", nil)

	refs, err := s.GetImages(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Empty(t, refs)
	assert.True(t, errors.Is(err, chapters.ErrNoImages))
}

func TestGetImagesHTTPError(t *testing.T) {
	srv, _ := newTestServer(t, "forbidden", http.StatusForbidden)
	s := NewScraper(newClient(t), "img", nil)

	_, err := s.GetImages(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, chapters.ErrNoImages))
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestExtractMatchCount(t *testing.T) {
	html := `<div>` + strings.Repeat(`<img src="p.jpg">`, 25) + `</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Len(t, Extract(doc, "div img"), 25)
}

func TestGetImagesRequiresSelector(t *testing.T) {
	srv, ua := newTestServer(t, readerPage, http.StatusOK)
	s := NewScraper(newClient(t), "  ", nil)

	refs, err := s.GetImages(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Empty(t, refs)
	assert.True(t, errors.Is(err, ErrNoSelector))
	assert.False(t, errors.Is(err, chapters.ErrNoImages))
	assert.Empty(t, s.Selector())
	assert.Empty(t, *ua, "no request is made without a selector")
}
