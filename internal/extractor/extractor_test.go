package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/gdrive"
	"github.com/hyperifyio/gocorpus/internal/locate"
)

type stubExtractor struct {
	name    string
	accepts bool
	records []corpus.Record
	calls   int
}

func (s *stubExtractor) Name() string                 { return s.name }
func (s *stubExtractor) CanHandle(source string) bool { return s.accepts }
func (s *stubExtractor) Extract(ctx context.Context, source string) []corpus.Record {
	s.calls++
	return s.records
}

func TestDispatchFirstRegisteredWins(t *testing.T) {
	first := &stubExtractor{name: "first", accepts: true, records: []corpus.Record{{ID: "a"}}}
	second := &stubExtractor{name: "second", accepts: true, records: []corpus.Record{{ID: "b"}}}
	r := NewRegistry()
	r.Register(first)
	r.Register(second)

	records, err := r.Dispatch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Fatalf("expected first extractor's record, got %+v", records)
	}
	if first.calls != 1 || second.calls != 0 {
		t.Fatalf("expected only first extractor to run, got first=%d second=%d", first.calls, second.calls)
	}
}

func TestDispatchNoHandler(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "never", accepts: false})

	_, err := r.Dispatch(context.Background(), "mystery://source")
	if !errors.Is(err, ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestDispatchAccumulatesAndResets(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{name: "always", accepts: true, records: []corpus.Record{{ID: "x"}, {ID: "y"}}})

	if _, err := r.Dispatch(context.Background(), "one"); err != nil {
		t.Fatalf("Dispatch one: %v", err)
	}
	if _, err := r.Dispatch(context.Background(), "two"); err != nil {
		t.Fatalf("Dispatch two: %v", err)
	}
	if got := len(r.Records()); got != 4 {
		t.Fatalf("expected 4 accumulated records, got %d", got)
	}

	r.Reset()
	if got := len(r.Records()); got != 0 {
		t.Fatalf("expected empty accumulator after Reset, got %d", got)
	}
}

// Dispatch routing must be unambiguous: each sample source is claimed by
// exactly one of the production extractors.
func TestCanHandleExclusivity(t *testing.T) {
	client := &fetch.Client{MaxAttempts: 1}
	locator := &locate.Locator{}
	extractors := []Extractor{
		NewGitHub(client, GitHubConfig{}),
		NewSubstack(client, locator, SubstackConfig{}),
		NewPDF(&gdrive.Downloader{Client: client}, PDFConfig{}),
		NewMarkdownFile(client),
		NewBlog(client, locator, BlogConfig{}),
	}

	cases := []struct {
		source string
		want   string
	}{
		{"https://github.com/hyperify/widgets", "github"},
		{"https://www.github.com/hyperify/widgets", "github"},
		{"https://example.substack.com", "substack"},
		{"https://example.substack.com/p/first-post", "substack"},
		{"https://example.com/files/book.pdf", "pdf"},
		{"https://drive.google.com/file/d/abc123/view", "pdf"},
		{"/home/user/book.pdf", "pdf"},
		{"https://example.com/docs/readme.md", "markdown"},
		{"notes/readme.md", "markdown"},
		{"https://example.com/blog/some-post", "blog"},
		{"https://example.com/2024/05/announcement", "blog"},
		{"https://example.com/dl?file=report.pdf", "blog"},
		{"https://example.com/share?u=drive.google.com", "blog"},
	}
	for _, tc := range cases {
		var claimed []string
		for _, e := range extractors {
			if e.CanHandle(tc.source) {
				claimed = append(claimed, e.Name())
			}
		}
		if len(claimed) != 1 {
			t.Fatalf("source %q claimed by %v, want exactly one", tc.source, claimed)
		}
		if claimed[0] != tc.want {
			t.Fatalf("source %q claimed by %q, want %q", tc.source, claimed[0], tc.want)
		}
	}
}

// An unreachable target is a per-source failure, never a panic or error out
// of Dispatch.
func TestDispatchUnreachableSourceIsEmpty(t *testing.T) {
	client := &fetch.Client{MaxAttempts: 1, PerRequestTimeout: 200 * time.Millisecond}
	locator := &locate.Locator{}
	r := NewRegistry()
	r.Register(NewGitHub(client, GitHubConfig{APIBaseURL: "http://127.0.0.1:1"}))
	r.Register(NewBlog(client, locator, BlogConfig{}))

	for _, source := range []string{
		"http://127.0.0.1:1/blog/down",
		"https://github.com/owner/repo",
	} {
		records, err := r.Dispatch(context.Background(), source)
		if err != nil {
			t.Fatalf("Dispatch(%q): %v", source, err)
		}
		if len(records) != 0 {
			t.Fatalf("Dispatch(%q) = %d records, want 0", source, len(records))
		}
	}
}

func TestCanHandleRejectsUnroutable(t *testing.T) {
	client := &fetch.Client{MaxAttempts: 1}
	locator := &locate.Locator{}
	extractors := []Extractor{
		NewGitHub(client, GitHubConfig{}),
		NewSubstack(client, locator, SubstackConfig{}),
		NewPDF(&gdrive.Downloader{Client: client}, PDFConfig{}),
		NewMarkdownFile(client),
		NewBlog(client, locator, BlogConfig{}),
	}
	for _, source := range []string{
		"ftp://example.com/file.txt",
		"/home/user/notes.txt",
		"https://github.com/just-an-owner",
	} {
		for _, e := range extractors {
			if e.CanHandle(source) {
				t.Fatalf("extractor %q unexpectedly claimed %q", e.Name(), source)
			}
		}
	}
}
