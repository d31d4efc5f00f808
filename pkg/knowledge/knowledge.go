// Package knowledge turns decrypted product payloads into plain-text
// documents an LLM can be grounded on.
package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// DefaultBase resolves relative links in HTML knowledge without its own URL.
const DefaultBase = "https://haithe.ai"

// ErrInvalidUTF8 is returned for text payloads that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("knowledge: payload is not valid UTF-8")

// Document is one piece of knowledge. Source names where it came from.
type Document struct {
	Source string
	Text   string
}

// FromText wraps a UTF-8 payload.
func FromText(source string, payload []byte) (Document, error) {
	if !utf8.Valid(payload) {
		return Document{}, ErrInvalidUTF8
	}
	return Document{Source: source, Text: string(payload)}, nil
}

// FromHTML extracts readable text from an HTML document. Links are kept as
// "text (absolute-url)" with relative hrefs resolved against base.
func FromHTML(source string, r io.Reader, base *url.URL) (Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: parse html: %w", err)
	}
	if base == nil {
		base, _ = url.Parse(DefaultBase)
	}

	var sb strings.Builder
	extractText(doc, &sb, base, 0)
	return Document{Source: source, Text: cleanText(sb.String())}, nil
}

// FromPDF extracts the plain text of a PDF held in memory.
func FromPDF(source string, payload []byte) (doc Document, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("knowledge: malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: read pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return Document{}, fmt.Errorf("knowledge: read pdf text: %w", err)
	}
	return Document{Source: source, Text: cleanText(string(text))}, nil
}

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

func extractText(n *html.Node, sb *strings.Builder, base *url.URL, depth int) {
	if depth > 64 {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "template":
			return
		case "p", "div", "section", "article", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			sb.WriteString("\n\n")
		case "br":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		case "img":
			if alt := getAttr(n, "alt"); alt != "" {
				sb.WriteString("[Image: " + alt + "] ")
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, base, depth+1)
	}

	if n.Type == html.ElementNode && n.Data == "a" {
		href := getAttr(n, "href")
		if href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
			if abs, err := base.Parse(href); err == nil {
				sb.WriteString("(" + abs.String() + ") ")
			}
		}
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cleanText(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Render joins documents into the attachment block appended to the system
// instruction.
func Render(docs []Document) string {
	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if d.Source != "" {
			fmt.Fprintf(&sb, "<attachment id=%q>\n%s\n</attachment>", d.Source, d.Text)
		} else {
			fmt.Fprintf(&sb, "<attachment>\n%s\n</attachment>", d.Text)
		}
	}
	return sb.String()
}
