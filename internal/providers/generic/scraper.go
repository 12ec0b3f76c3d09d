package generic

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/brogergvhs/mangasync/internal/chapters"
	"github.com/brogergvhs/mangasync/internal/providers"
)

var _ providers.Scraper = (*Scraper)(nil)

// ErrNoSelector is returned by GetImages when no selector is configured.
var ErrNoSelector = errors.New("no image selector configured")

// Attributes read from each matched node, in order of preference.
var imageAttrs = []string{"src", "data-src"}

type Scraper struct {
	client   *http.Client
	selector string
	log      interface{ Debugf(string, ...any) }
}

func NewScraper(c *http.Client, selector string, log interface{ Debugf(string, ...any) }) *Scraper {
	return &Scraper{
		client:   c,
		selector: strings.TrimSpace(selector),
		log:      log,
	}
}

func (s *Scraper) Selector() string {
	return s.selector
}

func (s *Scraper) fetchDOM(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", target)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Newf("fetch %s: HTTP %d", target, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", target)
	}

	return doc, nil
}

// GetImages returns the image reference of every node matching the
// selector, in document order. References are returned as written in the
// page (trimmed), without resolving them.
func (s *Scraper) GetImages(ctx context.Context, chapterURL string) ([]string, error) {
	if s.selector == "" {
		return nil, errors.WithHint(ErrNoSelector, "set selector in the config or pass --selector")
	}

	doc, err := s.fetchDOM(ctx, chapterURL)
	if err != nil {
		return nil, err
	}

	refs := Extract(doc, s.selector)
	if s.log != nil {
		s.log.Debugf("selector %q matched %d images on %s", s.selector, len(refs), chapterURL)
	}

	if len(refs) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(chapters.ErrNoImages, "scrape %s", chapterURL),
			"the selector is likely wrong or the site loads images with JavaScript",
		)
	}

	return refs, nil
}

// Extract applies selector to an already parsed document.
func Extract(doc *goquery.Document, selector string) []string {
	var out []string

	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if ref := imageRef(sel); ref != "" {
			out = append(out, ref)
		}
	})

	return out
}

func imageRef(sel *goquery.Selection) string {
	for _, k := range imageAttrs {
		if v, ok := sel.Attr(k); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	return ""
}
