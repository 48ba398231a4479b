// Package markdown converts scraped job description HTML into clean
// markdown. Job boards emit sloppy markup (line breaks inside bold tags,
// empty styled spans), so conversion is bracketed by an HTML repair pass
// and a markdown spacing fixup pass.
package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/project-hledam/go-scraper/internal/cleaner"
)

var (
	emptySpanBrRe = regexp.MustCompile(`<span>\s*<br\s*/?>\s*</span>`)
	brInStrongRe  = regexp.MustCompile(`((?:<br\s*/?>)+)\s*</strong>`)
	brInEmRe      = regexp.MustCompile(`((?:<br\s*/?>)+)\s*</em>`)

	boldSpanRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldNoSpaceRe   = regexp.MustCompile(`\*\*([^*]+)\*\*([a-zA-Z0-9])`)
	italicNoSpaceRe = regexp.MustCompile(`(^|[^*])\*([^*]+)\*([a-zA-Z0-9])`)
	adjacentBoldRe  = regexp.MustCompile(`\*\*\*\*`)
)

// Converter turns HTML fragments into markdown.
type Converter struct {
	md      *converter.Converter
	cleaner *cleaner.Cleaner
}

// New builds a Converter with commonmark output (ATX headings, dash bullets).
func New() *Converter {
	return &Converter{
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		cleaner: cleaner.NewCleaner(),
	}
}

// FixHTML repairs markup problems that corrupt markdown conversion:
// trailing <br> inside <strong>/<em> moves outside the tag, and spans
// holding only a <br> collapse to the <br>.
func FixHTML(html string) string {
	html = emptySpanBrRe.ReplaceAllString(html, "<br>")
	html = brInStrongRe.ReplaceAllString(html, "</strong>$1")
	html = brInEmRe.ReplaceAllString(html, "</em>$1")
	return html
}

// FixMD repairs spacing artifacts left by conversion: padding inside bold
// spans, missing space between a closing delimiter and the next word, and
// back-to-back bold spans that merged into ****.
func FixMD(text string) string {
	text = boldSpanRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-2])
		return "**" + inner + "**"
	})
	text = boldNoSpaceRe.ReplaceAllString(text, "**$1** $2")
	text = italicNoSpaceRe.ReplaceAllString(text, "$1*$2* $3")
	text = adjacentBoldRe.ReplaceAllString(text, "**\n\n**")
	return text
}

// Convert turns an HTML fragment into clean markdown.
func (c *Converter) Convert(htmlFragment string) (string, error) {
	repaired := FixHTML(htmlFragment)
	md, err := c.md.ConvertString(repaired)
	if err != nil {
		return "", err
	}
	return FixMD(strings.TrimSpace(md)), nil
}

// ConvertUnescaped first unescapes HTML entities, for payloads that arrive
// entity-encoded (JSON-LD descriptions).
func (c *Converter) ConvertUnescaped(htmlFragment string) (string, error) {
	return c.Convert(html.UnescapeString(htmlFragment))
}

// ConvertDocument extracts readable content from a full page: strips page
// chrome, sanitizes, then converts what remains.
func (c *Converter) ConvertDocument(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return c.Convert(pageHTML)
	}
	doc.Find("script, style, nav, header, footer, aside, noscript, iframe").Remove()
	body := doc.Find("body")
	inner, err := body.Html()
	if err != nil || strings.TrimSpace(inner) == "" {
		inner = pageHTML
	}
	return c.Convert(c.cleaner.Clean(inner))
}
