package crawler

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "footer": true, "header": true, "aside": true,
	"svg": true, "iframe": true, "form": true, "button": true, "img": true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"table": true, "tr": true, "blockquote": true, "ul": true, "ol": true,
	"dl": true, "dt": true, "dd": true, "figure": true, "figcaption": true,
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// ExtractMarkdown converts an HTML document to markdown, dropping links and images.
// When the page body yields no text the readability article text is used instead.
func ExtractMarkdown(htmlContent []byte, sourceURL string) (title string, markdown string, err error) {
	doc, err := html.Parse(bytes.NewReader(htmlContent))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title = strings.TrimSpace(extractTitle(doc))

	w := &markdownWriter{}
	w.walk(doc)
	markdown = w.String()

	if markdown == "" || title == "" {
		article, rerr := readability.FromReader(bytes.NewReader(htmlContent), parseURL(sourceURL))
		if rerr == nil {
			if title == "" {
				title = strings.TrimSpace(article.Title)
			}
			if markdown == "" {
				markdown = strings.TrimSpace(article.TextContent)
			}
		}
	}

	return title, markdown, nil
}

// extractTitle finds and returns the page title
func extractTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return getNodeText(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := extractTitle(c); title != "" {
			return title
		}
	}

	return ""
}

// getNodeText extracts all text from a node and its children
func getNodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(getNodeText(c))
	}

	return text.String()
}

// markdownWriter renders the visible text of a DOM as markdown
type markdownWriter struct {
	buf bytes.Buffer
}

func (w *markdownWriter) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		tag := n.Data
		if skippedTags[tag] || tag == "head" {
			return
		}

		switch {
		case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
			text := collapseSpace(getNodeText(n))
			if text != "" {
				w.blankLine()
				w.buf.WriteString(strings.Repeat("#", int(tag[1]-'0')))
				w.buf.WriteString(" ")
				w.buf.WriteString(text)
				w.blankLine()
			}
			return
		case tag == "pre":
			text := strings.Trim(getNodeText(n), "\n")
			if text != "" {
				w.blankLine()
				w.buf.WriteString("```\n")
				w.buf.WriteString(text)
				w.buf.WriteString("\n```")
				w.blankLine()
			}
			return
		case tag == "li":
			w.newLine()
			w.buf.WriteString("- ")
		case tag == "br":
			w.newLine()
			return
		case tag == "hr":
			w.blankLine()
			w.buf.WriteString("---")
			w.blankLine()
			return
		case blockTags[tag]:
			w.blankLine()
		}
	}

	if n.Type == html.TextNode {
		w.text(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if n.Type == html.ElementNode && blockTags[n.Data] {
		w.blankLine()
	}
}

// text appends inline text, collapsing whitespace runs to a single space
func (w *markdownWriter) text(s string) {
	collapsed := collapseSpace(s)
	if collapsed == "" {
		if s != "" && !w.atLineStart() {
			w.space()
		}
		return
	}
	if startsWithSpace(s) {
		w.space()
	}
	w.buf.WriteString(collapsed)
	if endsWithSpace(s) {
		w.space()
	}
}

func (w *markdownWriter) space() {
	b := w.buf.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte(" ")) || bytes.HasSuffix(b, []byte("\n")) {
		return
	}
	w.buf.WriteByte(' ')
}

func (w *markdownWriter) atLineStart() bool {
	b := w.buf.Bytes()
	return len(b) == 0 || b[len(b)-1] == '\n'
}

func (w *markdownWriter) newLine() {
	if !w.atLineStart() {
		w.buf.WriteByte('\n')
	}
}

func (w *markdownWriter) blankLine() {
	b := w.buf.Bytes()
	if len(b) == 0 || bytes.HasSuffix(b, []byte("\n\n")) {
		return
	}
	if b[len(b)-1] == '\n' {
		w.buf.WriteByte('\n')
		return
	}
	w.buf.WriteString("\n\n")
}

// String returns the markdown with trailing spaces and extra blank lines removed
func (w *markdownWriter) String() string {
	lines := strings.Split(w.buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(" \t\n\r\f", rune(s[len(s)-1]))
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

// ReadLimitedBody reads up to maxBytes from a reader
func ReadLimitedBody(body io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(body, maxBytes)
	return io.ReadAll(limited)
}
