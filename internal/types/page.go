package types

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is a snapshot of a document to extract from.
type Page struct {
	// URL is the address the page was requested with.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// StatusCode is the HTTP status code, 0 for local files.
	StatusCode int

	// ContentType is the MIME type of the page.
	ContentType string

	// Body is the raw HTML.
	Body []byte

	// Doc is a parsed goquery document (lazily loaded).
	Doc *goquery.Document

	// Source identifies how the page was obtained: http, browser or file.
	Source string

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	// FetchedAt is when this page was received.
	FetchedAt time.Time

	// Challenge names the bot-challenge widget found on the page, if any.
	Challenge string
}

// NewPage creates a Page from raw HTML.
func NewPage(url, source string, body []byte) *Page {
	return &Page{
		URL:         url,
		FinalURL:    url,
		ContentType: "text/html",
		Body:        body,
		Source:      source,
		FetchedAt:   time.Now(),
	}
}

// Document returns a parsed goquery document, lazily initializing it.
func (p *Page) Document() (*goquery.Document, error) {
	if p.Doc != nil {
		return p.Doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	p.Doc = doc
	return doc, nil
}

// EffectiveURL returns the post-redirect URL when known.
func (p *Page) EffectiveURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// IsSuccess returns true if the page was loaded without an HTTP error.
func (p *Page) IsSuccess() bool {
	return p.StatusCode == 0 || (p.StatusCode >= 200 && p.StatusCode < 300)
}
