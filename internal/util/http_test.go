package util

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClientSetsHeaders(t *testing.T) {
	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("\n  cf_clearance=abc  \nignored=1\n"), 0644))

	c, err := NewHTTPClient(HTTPClientOptions{
		Timeout:    5 * time.Second,
		Cookie:     "session=1",
		CookieFile: cookieFile,
	})
	require.NoError(t, err)

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "session=1; cf_clearance=abc", gotCookie)
}

func TestNewHTTPClientMissingCookieFile(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientOptions{CookieFile: filepath.Join(t.TempDir(), "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cookie file")
}

func TestPickUserAgent(t *testing.T) {
	assert.Equal(t, "bot/1.0", PickUserAgent("bot/1.0"))
	assert.Equal(t, DefaultUserAgent, PickUserAgent(""))
}

func TestHuman(t *testing.T) {
	assert.Equal(t, "512 B", Human(512))
	assert.Equal(t, "1.50 KB", Human(1536))
	assert.Equal(t, "2.00 MB", Human(2<<20))
}
