// Package generic implements a providers.Scraper for HTML reading sites
// whose page images can be located with a single CSS selector. Pages that
// only render images from scripts are not supported.
package generic
