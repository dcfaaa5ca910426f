package markdown

import (
	"strings"
	"testing"
)

func TestConvert_HeadingsPreserveLevel(t *testing.T) {
	md := Convert(`<div><h1>Top</h1><h3>Deep</h3><p>Body</p></div>`)
	if !strings.Contains(md, "# Top") {
		t.Fatalf("expected h1 mapping, got: %q", md)
	}
	if !strings.Contains(md, "### Deep") {
		t.Fatalf("expected h3 mapping, got: %q", md)
	}
	if !strings.Contains(md, "Body") {
		t.Fatalf("expected paragraph text, got: %q", md)
	}
}

func TestConvert_LinksAndImages(t *testing.T) {
	md := Convert(`<p>See <a href="https://example.com/a">the docs</a> and <img src="/pic.png" alt="a pic">.</p>`)
	if !strings.Contains(md, "[the docs](https://example.com/a)") {
		t.Fatalf("expected markdown link, got: %q", md)
	}
	if !strings.Contains(md, "![a pic](/pic.png)") {
		t.Fatalf("expected markdown image, got: %q", md)
	}
}

func TestConvert_Lists(t *testing.T) {
	md := Convert(`<ul><li>first</li><li>second</li></ul><ol><li>one</li><li>two</li></ol>`)
	if !strings.Contains(md, "* first\n* second") {
		t.Fatalf("expected unordered list, got: %q", md)
	}
	if !strings.Contains(md, "1. one\n2. two") {
		t.Fatalf("expected ordered list, got: %q", md)
	}
}

func TestConvert_CodeBlockWithLanguageHint(t *testing.T) {
	md := Convert(`<pre><code class="language-go">fmt.Println("hi")</code></pre>`)
	if !strings.Contains(md, "```go\nfmt.Println(\"hi\")\n```") {
		t.Fatalf("expected fenced block with language hint, got: %q", md)
	}
}

func TestConvert_InlineCode(t *testing.T) {
	md := Convert(`<p>Call <code>Do()</code> once.</p>`)
	if !strings.Contains(md, "Call `Do()` once.") {
		t.Fatalf("expected inline code span, got: %q", md)
	}
}

func TestConvert_Blockquote(t *testing.T) {
	md := Convert(`<blockquote>Quoted wisdom</blockquote>`)
	if !strings.Contains(md, "> Quoted wisdom") {
		t.Fatalf("expected blockquote prefix, got: %q", md)
	}
}

func TestConvert_TableShape(t *testing.T) {
	md := Convert(`<table>
		<thead><tr><th>A</th><th>B</th><th>C</th></tr></thead>
		<tbody>
			<tr><td>1</td><td>2</td><td>3</td></tr>
			<tr><td>4</td><td>5</td><td>6</td></tr>
		</tbody>
	</table>`)
	var rows []string
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "|") {
			rows = append(rows, line)
		}
	}
	// 1 header + 1 separator + 2 data rows
	if len(rows) != 4 {
		t.Fatalf("expected 4 table rows, got %d: %q", len(rows), md)
	}
	for _, row := range rows {
		if strings.Count(row, "|") != 4 {
			t.Fatalf("expected 3 pipe-delimited cells per row, got: %q", row)
		}
	}
	if rows[0] != "| A | B | C |" {
		t.Fatalf("unexpected header row: %q", rows[0])
	}
	if rows[1] != "| --- | --- | --- |" {
		t.Fatalf("unexpected separator row: %q", rows[1])
	}
}

func TestConvert_TableWithoutTheadUsesFirstRow(t *testing.T) {
	md := Convert(`<table><tr><td>H1</td><td>H2</td></tr><tr><td>a</td><td>b</td></tr></table>`)
	if !strings.Contains(md, "| H1 | H2 |\n| --- | --- |\n| a | b |") {
		t.Fatalf("expected first row promoted to header, got: %q", md)
	}
}

func TestConvert_SkipsScriptAndStyle(t *testing.T) {
	md := Convert(`<div><script>var x = 1;</script><style>.a{}</style><p>Visible</p></div>`)
	if strings.Contains(md, "var x") || strings.Contains(md, ".a{}") {
		t.Fatalf("script/style must be stripped, got: %q", md)
	}
	if !strings.Contains(md, "Visible") {
		t.Fatalf("expected visible text, got: %q", md)
	}
}

func TestCollapse_BlankLines(t *testing.T) {
	got := Collapse("a\n\n\n\n\nb")
	if got != "a\n\nb" {
		t.Fatalf("expected single blank line, got %q", got)
	}
	// Two newlines already canonical
	if Collapse("a\n\nb") != "a\n\nb" {
		t.Fatalf("canonical spacing must pass through")
	}
}

func TestConvert_OutputHasNoTripleBlankLines(t *testing.T) {
	md := Convert(`<div><p>one</p><div></div><div></div><p>two</p></div>`)
	if strings.Contains(md, "\n\n\n") {
		t.Fatalf("output must be collapsed, got: %q", md)
	}
}

func TestPlainText_ParagraphSeparation(t *testing.T) {
	text := PlainText(`<html><body><p>First paragraph.</p><p>Second paragraph.</p></body></html>`)
	if !strings.Contains(text, "First paragraph.") || !strings.Contains(text, "Second paragraph.") {
		t.Fatalf("expected both paragraphs, got: %q", text)
	}
	if !strings.Contains(text, "First paragraph.\n\nSecond paragraph.") {
		t.Fatalf("expected blank-line separation, got: %q", text)
	}
}
