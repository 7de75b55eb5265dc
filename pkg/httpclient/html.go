package httpclient

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlTitle extracts <title> from an HTML body, or "" when body is not HTML.
func htmlTitle(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
