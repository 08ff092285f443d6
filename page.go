package muffle

import "context"

// Fetcher retrieves the HTML of a page for one-shot filtering.
type Fetcher interface {
	// Fetch returns the HTML served at url.
	Fetch(ctx context.Context, url string) (string, error)
	// Close releases resources held by the fetcher.
	Close() error
}

// Converter renders filtered HTML as Markdown.
type Converter interface {
	Convert(html string) (string, error)
}
