package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/locate"
)

func substackPost(title, author string) string {
	meta := ""
	if author != "" {
		meta = fmt.Sprintf(`<meta name="author" content="%s">`, author)
	}
	return fmt.Sprintf(`<html><head><title>%s</title>%s</head>
<body><div class="single-post"><h1>%s</h1>
<p>This issue covers the usual ground in more depth than usual, with enough
words to comfortably clear the minimum extraction threshold for a post.</p>
<p>Subscribe for more of the same next week.</p>
</div></body></html>`, title, meta, title)
}

func substackSite(t *testing.T) (*httptest.Server, *Substack) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="header-author">Casey Example</div>
<a href="/archive">Archive</a>
</body></html>`)
	})
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/p/first-issue">First Issue</a>
<a href="/p/second-issue?utm_source=feed">Second Issue</a>
<a href="/p/first-issue">First Issue again</a>
<a href="/about">About</a>
</body></html>`)
	})
	mux.HandleFunc("/p/first-issue", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, substackPost("First Issue", ""))
	})
	mux.HandleFunc("/p/second-issue", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, substackPost("Second Issue", "Guest Writer"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := NewSubstack(&fetch.Client{MaxAttempts: 1}, &locate.Locator{MinTextLen: 10}, SubstackConfig{})
	return srv, s
}

func TestSubstackCanHandle(t *testing.T) {
	s := NewSubstack(&fetch.Client{MaxAttempts: 1}, &locate.Locator{}, SubstackConfig{})
	cases := []struct {
		source string
		want   bool
	}{
		{"https://writer.substack.com", true},
		{"https://writer.substack.com/p/some-post", true},
		{"https://substack.com/@writer", true},
		{"https://example.com/substack", false},
		{"https://notsubstack.com", false},
		{"ftp://writer.substack.com", false},
	}
	for _, tc := range cases {
		if got := s.CanHandle(tc.source); got != tc.want {
			t.Fatalf("CanHandle(%q) = %v, want %v", tc.source, got, tc.want)
		}
	}
}

func TestSubstackExtractPublication(t *testing.T) {
	srv, s := substackSite(t)

	records := s.Extract(context.Background(), srv.URL+"/")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "First Issue" {
		t.Fatalf("first title = %q", first.Title)
	}
	if first.ContentType != "newsletter" {
		t.Fatalf("content_type = %q", first.ContentType)
	}
	// No per-post author means the publication author applies.
	if first.Author != "Casey Example" {
		t.Fatalf("first author = %q", first.Author)
	}
	if first.Metadata["platform"] != "Substack" {
		t.Fatalf("platform = %q", first.Metadata["platform"])
	}
	if _, flagged := first.Metadata["author_mismatch"]; flagged {
		t.Fatal("first post should not be flagged")
	}

	second := records[1]
	if second.Author != "Guest Writer" {
		t.Fatalf("second author = %q", second.Author)
	}
	if second.Metadata["author_mismatch"] != "true" {
		t.Fatalf("guest post not flagged: %v", second.Metadata)
	}
	if second.Metadata["publication_author"] != "Casey Example" {
		t.Fatalf("publication_author = %q", second.Metadata["publication_author"])
	}
}

func TestSubstackPostLinksDedupAndFilter(t *testing.T) {
	doc := mustParse(t, `<html><body>
<a href="/p/alpha">A</a>
<a href="/p/alpha#comments">A comments</a>
<a href="/p/beta?src=home">B</a>
<a href="/p/">Empty</a>
<a href="/about">About</a>
</body></html>`)
	links := postLinks(doc, "https://writer.substack.com/archive")
	want := []string{
		"https://writer.substack.com/p/alpha",
		"https://writer.substack.com/p/beta",
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v", links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestSubstackPrincipalAuthorFallbacks(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{`<div class="author-name">Selector Author</div>`, "Selector Author"},
		{`<head><meta name="author" content="Meta Author"></head>`, "Meta Author"},
		{`<head><meta property="og:site_name" content="Site Name Weekly"></head>`, "Site Name Weekly"},
		{`<p>nothing</p>`, ""},
	}
	for _, tc := range cases {
		doc := mustParse(t, "<html>"+tc.html+"</html>")
		if got := principalAuthor(doc); got != tc.want {
			t.Fatalf("principalAuthor(%q) = %q, want %q", tc.html, got, tc.want)
		}
	}
}

func TestSubstackNoArchiveUsesLandingLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="site-author">Solo Author</div>
<a href="/p/only-post">Only Post</a>
</body></html>`)
	})
	mux.HandleFunc("/p/only-post", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, substackPost("Only Post", ""))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := NewSubstack(&fetch.Client{MaxAttempts: 1}, &locate.Locator{MinTextLen: 10}, SubstackConfig{})
	records := s.Extract(context.Background(), srv.URL+"/")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Author != "Solo Author" {
		t.Fatalf("author = %q", records[0].Author)
	}
	if !strings.Contains(records[0].Content, "minimum extraction threshold") {
		t.Fatalf("content = %q", records[0].Content)
	}
}
