package mock

import (
	"context"

	"github.com/fwojciec/muffle"
)

var _ muffle.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of muffle.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ muffle.Converter = (*Converter)(nil)

// Converter is a mock implementation of muffle.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
