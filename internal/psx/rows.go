package psx

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespacePattern = regexp.MustCompile(`[\n\t\r\s\xA0]+`)

// Row is one listing row: the trimmed text of each cell plus the attachment
// reference found in the attachment cell.
type Row struct {
	Cells      []string
	Attachment AttachmentRef
}

// ParseRows reads the body rows of the first table in an HTML snapshot.
func ParseRows(r io.Reader) ([]Row, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	var rows []Row
	var inTableBody bool
	var f func(*html.Node)

	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tbody" {
			inTableBody = true
		}

		if inTableBody && n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, parseRow(n))
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)

	return rows, nil
}

func parseRow(tr *html.Node) Row {
	var row Row
	var cells []*html.Node

	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
			row.Cells = append(row.Cells, cleanText(extractText(c)))
		}
	}

	if len(cells) >= minRowCells {
		row.Attachment = findAttachment(cells[attachmentCell])
	}
	return row
}

// findAttachment collects the first usable link and the first candidate-name
// attribute inside the attachment cell.
func findAttachment(n *html.Node) AttachmentRef {
	var ref AttachmentRef
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, "data-images"); ok && ref.Images == "" {
				ref.Images = strings.TrimSpace(v)
			}
			if n.Data == "a" && ref.Href == "" {
				if v, ok := attr(n, "href"); ok {
					v = strings.TrimSpace(v)
					if v != "" && v != "#" && !strings.HasPrefix(v, "javascript:") {
						ref.Href = v
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return ref
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			sb.WriteString(" ")
			continue
		}
		sb.WriteString(extractText(c))
	}
	return sb.String()
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
