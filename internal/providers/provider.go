package providers

import "context"

// Scraper lists the image references of one chapter page in page order.
type Scraper interface {
	GetImages(ctx context.Context, chapterURL string) ([]string, error)
}
