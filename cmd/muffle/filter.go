package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/goquery"
	"github.com/fwojciec/muffle/scan"
)

// Run executes the filter command: one forced scan pass over the page, then
// the filtered page on stdout.
func (c *FilterCmd) Run(deps *Dependencies) error {
	html, host, err := c.load(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}

	doc, err := goquery.NewDocument(host, html)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}
	defer doc.Close()

	e := newEngine(deps.Ctx, deps, doc, engineOptions{})
	defer e.scheduler.Stop()

	if len(c.Words) > 0 {
		e.state.Set(muffle.Settings{Enabled: true, Words: scan.NormalizeWords(c.Words)})
	} else {
		e.state.Load(deps.Ctx)
	}
	if !e.state.Settings().Enabled {
		fmt.Fprintln(deps.Stderr, "Filtering is disabled. Use 'muffle enable' to turn it on.")
	}

	if _, err := e.processor.Force(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stderr, "Removed %d item(s) from %s\n", e.processor.Removals(), displayHost(host))

	return c.render(deps, doc)
}

// load returns the page HTML and the hostname to filter it as.
func (c *FilterCmd) load(deps *Dependencies) (html, host string, err error) {
	host = c.Host
	switch {
	case c.Source == "-":
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), host, nil

	case strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://"):
		u, err := url.Parse(c.Source)
		if err != nil {
			return "", "", muffle.Errorf(muffle.EINVALID, "invalid url %q", c.Source)
		}
		if host == "" {
			host = u.Hostname()
		}
		if deps.Fetcher == nil {
			return "", "", muffle.Errorf(muffle.EINTERNAL, "no fetcher configured")
		}
		html, err := deps.Fetcher.Fetch(deps.Ctx, c.Source)
		if err != nil {
			return "", "", err
		}
		return html, host, nil

	default:
		data, err := os.ReadFile(c.Source)
		if err != nil {
			return "", "", muffle.Errorf(muffle.ENOTFOUND, "cannot read %s: %v", c.Source, err)
		}
		return string(data), host, nil
	}
}

func (c *FilterCmd) render(deps *Dependencies, doc *goquery.Document) error {
	if c.Format != "markdown" {
		html, err := doc.HTML()
		if err != nil {
			return err
		}
		fmt.Fprintln(deps.Stdout, html)
		return nil
	}

	if deps.Converter == nil {
		return muffle.Errorf(muffle.EINTERNAL, "no converter configured")
	}
	html, err := doc.HTML()
	if err != nil {
		return err
	}
	md, err := deps.Converter.Convert(html)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", muffle.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, md)
	return nil
}

func displayHost(host string) string {
	if host == "" {
		return "page"
	}
	return host
}
