// Package htmltomarkdown renders filtered pages as Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/muffle"
	"github.com/fwojciec/muffle/site"
)

// Ensure Converter implements muffle.Converter at compile time.
var _ muffle.Converter = (*Converter)(nil)

// Converter renders filtered pages as Markdown. Units the engine muffled are
// left out: Markdown cannot express hidden or dimmed content.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert renders html as Markdown, leaving out every muffled unit.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", muffle.Errorf(muffle.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", muffle.Errorf(muffle.EINVALID, "failed to parse HTML: %v", err)
	}
	doc.Find(mutedSelector).Remove()
	filtered, err := doc.Html()
	if err != nil {
		return "", err
	}

	result, err := c.conv.ConvertString(filtered)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result), nil
}

// mutedSelector matches units removed from view by the engine.
var mutedSelector = "[" + muffle.MarkerAttr + "], ." + site.RedditHiddenClass
