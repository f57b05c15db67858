// Package extract turns fetched markup into a normalized
// (title, description, body text) triple for enrichment.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Output length caps.
const (
	// MaxTitleLen caps the extracted page title.
	MaxTitleLen = 300
	// MaxDescriptionLen caps the extracted description.
	MaxDescriptionLen = 500
	// maxDescriptionBlocks bounds how many paragraphs feed the
	// description fallback.
	maxDescriptionBlocks = 8
)

// Content is the normalized extraction result. Body carries all visible
// text with scripts and styles removed and whitespace collapsed.
type Content struct {
	Title       string
	Description string
	Body        string
}

// Extract parses markup and pulls out title, description, and body text.
// It never fails: malformed or empty markup yields empty strings, and
// titleHint fills in when the document itself names nothing.
func Extract(markup, titleHint string) Content {
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if parseErr != nil {
		return Content{Title: capLen(strings.TrimSpace(titleHint), MaxTitleLen)}
	}

	return Content{
		Title:       extractTitle(doc, titleHint),
		Description: extractDescription(doc),
		Body:        extractBody(doc),
	}
}

// extractTitle prefers the Open Graph title, then the document title,
// then the caller's hint.
func extractTitle(doc *goquery.Document, hint string) string {
	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	title = strings.TrimSpace(title)

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(hint)
	}

	return capLen(collapseWhitespace(title), MaxTitleLen)
}

// extractDescription prefers the meta description, falling back to the
// first few paragraphs of text joined with single spaces.
func extractDescription(doc *goquery.Document) string {
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)

	if desc == "" {
		desc, _ = doc.Find(`meta[property="og:description"]`).First().Attr("content")
		desc = strings.TrimSpace(desc)
	}

	if desc == "" {
		var blocks []string
		doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := collapseWhitespace(sel.Text())
			if text != "" {
				blocks = append(blocks, text)
			}
			return len(blocks) < maxDescriptionBlocks
		})
		desc = strings.Join(blocks, " ")
	}

	return capLen(collapseWhitespace(desc), MaxDescriptionLen)
}

// extractBody returns all visible text with non-content elements
// stripped and whitespace collapsed.
func extractBody(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, iframe").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return collapseWhitespace(root.Text())
}

// collapseWhitespace squeezes all runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capLen(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
