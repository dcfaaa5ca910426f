// Package markdown converts isolated HTML fragments into canonical markdown.
// Heading levels, links, images, lists, code fences, blockquotes and tables
// all map to explicit markdown forms; when structural conversion fails the
// whole document falls back to plain-text extraction.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Collapse canonicalizes vertical whitespace: runs of three or more newlines
// become exactly one blank line. Applied uniformly regardless of the source
// extractor.
func Collapse(s string) string {
	return blankRuns.ReplaceAllString(s, "\n\n")
}

// Convert turns an HTML fragment into markdown. A failure anywhere in the
// structural conversion falls back to plain-text extraction of the whole
// document rather than aborting on a single malformed element.
func Convert(fragment string) string {
	out, err := convert(fragment)
	if err != nil {
		return PlainText(fragment)
	}
	return out
}

func convert(fragment string) (out string, err error) {
	// The walker indexes into attribute lists and node trees; treat any
	// panic as a whole-document conversion failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("structural conversion: %v", r)
		}
	}()
	node, perr := html.Parse(strings.NewReader(fragment))
	if perr != nil || node == nil {
		return "", fmt.Errorf("parse html: %w", perr)
	}
	root := findFirst(node, "body")
	if root == nil {
		root = node
	}
	w := &writer{}
	w.blocks(root)
	w.flush()
	return Collapse(strings.TrimSpace(w.out.String())), nil
}

// writer accumulates inline runs into paragraphs and emits block elements
// between them.
type writer struct {
	out     strings.Builder
	pending strings.Builder
}

func (w *writer) flush() {
	text := tidy(w.pending.String())
	w.pending.Reset()
	if text != "" {
		w.out.WriteString(text)
		w.out.WriteString("\n\n")
	}
}

func (w *writer) blocks(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			w.pending.WriteString(c.Data)
		case html.ElementNode:
			name := strings.ToLower(c.Data)
			switch name {
			case "script", "style", "noscript", "iframe":
				// stripped
			case "h1", "h2", "h3", "h4", "h5", "h6":
				w.flush()
				level := int(name[1] - '0')
				if text := tidy(inline(c)); text != "" {
					fmt.Fprintf(&w.out, "%s %s\n\n", strings.Repeat("#", level), text)
				}
			case "p":
				w.flush()
				if text := tidy(inline(c)); text != "" {
					w.out.WriteString(text)
					w.out.WriteString("\n\n")
				}
			case "ul":
				w.flush()
				w.list(c, false)
			case "ol":
				w.flush()
				w.list(c, true)
			case "pre":
				w.flush()
				w.fence(c)
			case "blockquote":
				w.flush()
				w.quote(c)
			case "table":
				w.flush()
				w.table(c)
			case "br":
				w.pending.WriteString("\n")
			case "hr":
				w.flush()
			case "a", "img", "code", "em", "strong", "i", "b", "span", "small",
				"sup", "sub", "u", "s", "abbr", "time", "mark":
				w.pending.WriteString(inline(c))
			default:
				// div, section, article and other containers
				w.flush()
				w.blocks(c)
				w.flush()
			}
		}
	}
}

func (w *writer) list(n *html.Node, ordered bool) {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !strings.EqualFold(c.Data, "li") {
			continue
		}
		text := tidy(inline(c))
		if text == "" {
			continue
		}
		i++
		if ordered {
			fmt.Fprintf(&w.out, "%d. %s\n", i, text)
		} else {
			fmt.Fprintf(&w.out, "* %s\n", text)
		}
	}
	if i > 0 {
		w.out.WriteString("\n")
	}
}

func (w *writer) fence(pre *html.Node) {
	lang := ""
	if code := findFirst(pre, "code"); code != nil {
		for _, a := range code.Attr {
			if strings.ToLower(a.Key) != "class" {
				continue
			}
			for _, cls := range strings.Fields(a.Val) {
				if strings.HasPrefix(cls, "language-") {
					lang = strings.TrimPrefix(cls, "language-")
					break
				}
			}
		}
	}
	text := strings.TrimRight(rawText(pre), "\n")
	fmt.Fprintf(&w.out, "```%s\n%s\n```\n\n", lang, text)
}

func (w *writer) quote(n *html.Node) {
	text := tidy(inline(n))
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		w.out.WriteString("> ")
		w.out.WriteString(strings.TrimSpace(line))
		w.out.WriteString("\n")
	}
	w.out.WriteString("\n")
}

func (w *writer) table(n *html.Node) {
	thead := findFirst(n, "thead")
	var header *html.Node
	var data []*html.Node
	rows := findAll(n, "tr")
	if len(rows) == 0 {
		return
	}
	if thead != nil {
		headRows := findAll(thead, "tr")
		if len(headRows) > 0 {
			header = headRows[0]
		}
		for _, tr := range rows {
			if !hasAncestor(tr, thead) {
				data = append(data, tr)
			}
		}
	}
	if header == nil {
		header = rows[0]
		data = rows[1:]
	}
	head := cells(header)
	if len(head) == 0 {
		return
	}
	w.out.WriteString("| " + strings.Join(head, " | ") + " |\n")
	sep := make([]string, len(head))
	for i := range sep {
		sep[i] = "---"
	}
	w.out.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, tr := range data {
		row := cells(tr)
		if len(row) == 0 {
			continue
		}
		w.out.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	w.out.WriteString("\n")
}

func cells(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		name := strings.ToLower(c.Data)
		if name == "th" || name == "td" {
			out = append(out, tidy(inline(c)))
		}
	}
	return out
}

// inline renders the subtree of n as an inline markdown run.
func inline(n *html.Node) string {
	var b strings.Builder
	inlineTo(&b, n)
	return b.String()
}

func inlineTo(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		switch name {
		case "script", "style", "noscript", "iframe":
			return
		case "a":
			var inner strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				inlineTo(&inner, c)
			}
			fmt.Fprintf(b, "[%s](%s)", strings.TrimSpace(collapseSpaces(inner.String())), attr(n, "href"))
			return
		case "img":
			fmt.Fprintf(b, "![%s](%s)", attr(n, "alt"), attr(n, "src"))
			return
		case "code":
			fmt.Fprintf(b, "`%s`", rawText(n))
			return
		case "br":
			b.WriteString("\n")
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inlineTo(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
}

// PlainText extracts readable text from HTML with paragraph-level
// double-newline separation. It is the whole-document fallback when
// structural conversion fails.
func PlainText(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil || node == nil {
		return strings.TrimSpace(fragment)
	}
	var b strings.Builder
	collectText(&b, node, false)
	return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	if n.Type == html.ElementNode {
		name := strings.ToLower(n.Data)
		switch name {
		case "script", "style", "noscript", "iframe":
			return
		case "pre", "code":
			inPre = true
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "div", "td", "tr":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		data := n.Data
		if !inPre {
			data = strings.ReplaceAll(data, "\t", " ")
			data = strings.ReplaceAll(data, "\r", " ")
		}
		b.WriteString(data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "div":
			b.WriteString("\n\n")
		case "li", "tr":
			b.WriteString("\n")
		case "pre", "code":
			b.WriteString("\n")
		}
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// Keep at most one consecutive blank
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, collapseSpaces(trimmed))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return strings.Join(out, "\n")
}

// tidy collapses horizontal whitespace in an inline run while keeping
// explicit line breaks, then trims the result.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(collapseSpaces(line))
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, tag string) *html.Node {
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(n)
	return res
}

func findAll(n *html.Node, tag string) []*html.Node {
	var res []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
			res = append(res, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return res
}

func hasAncestor(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
