package extract

// parse.go walks the listing HTML. Each <tr> of the first <tbody> yields at
// most one record; rows without a usable title, link or date are skipped.

import (
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/normapipe/normapipe/internal/record"
)

// maxTitleLen caps accepted titles; the destination column is bounded and
// longer entries are listing noise.
const maxTitleLen = 65

func (s *Scraper) parseListing(r io.Reader) ([]record.Row, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	tbody := findElement(doc, "tbody", "")
	if tbody == nil {
		return nil, nil
	}

	var rows []record.Row
	for tr := range childElements(tbody, "tr") {
		if row, ok := s.parseRow(tr); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// parseRow extracts one record from a table row. The bool result reports
// whether the row is usable.
func (s *Scraper) parseRow(tr *html.Node) (record.Row, bool) {
	row := record.Row{
		"created_at":        nil,
		"update_at":         time.Now().Format("2006-01-02 15:04:05"),
		"is_active":         true,
		"title":             nil,
		"gtype":             nil,
		"entity":            s.entity,
		"external_link":     nil,
		"rtype_id":          nil,
		"summary":           nil,
		"classification_id": s.classificationID,
	}

	titleCell := findElement(tr, "td", "views-field-title")
	if titleCell == nil {
		return nil, false
	}
	anchor := findElement(titleCell, "a", "")
	if anchor == nil {
		return nil, false
	}

	title := CleanQuotes(nodeText(anchor))
	if title == "" || len([]rune(title)) > maxTitleLen {
		return nil, false
	}
	row["title"] = title

	link := attr(anchor, "href")
	if link != "" && !strings.HasPrefix(link, "http") {
		link = s.siteOrigin + link
	}
	if link == "" {
		return nil, false
	}
	row["external_link"] = link
	row["gtype"] = "link"

	if summaryCell := findElement(tr, "td", "views-field-body"); summaryCell != nil {
		if summary := CleanQuotes(nodeText(summaryCell)); summary != "" {
			row["summary"] = capitalize(summary)
		}
	}

	created := extractDate(tr)
	if created == "" {
		return nil, false
	}
	row["created_at"] = created

	row["rtype_id"] = RtypeFor(title)
	return row, true
}

// extractDate reads the creation date cell, preferring the machine-readable
// content attribute, and normalizes it to YYYY-MM-DD.
func extractDate(tr *html.Node) string {
	cell := findElement(tr, "td", "views-field-field-fecha--1")
	if cell == nil {
		return ""
	}

	raw := ""
	if span := findElement(cell, "span", "date-display-single"); span != nil {
		raw = attr(span, "content")
		if raw == "" {
			raw = nodeText(span)
		}
	} else {
		raw = nodeText(cell)
	}

	return NormalizeDate(strings.TrimSpace(raw))
}

// findElement returns the first descendant element with the given tag and,
// when class is non-empty, that class token.
func findElement(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		if class == "" || hasClass(n, class) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// childElements iterates direct child elements with the given tag.
func childElements(n *html.Node, tag string) func(func(*html.Node) bool) {
	return func(yield func(*html.Node) bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				if !yield(c) {
					return
				}
			}
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(a.Val) {
			if token == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates the text content of a subtree, collapsing
// whitespace.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}
