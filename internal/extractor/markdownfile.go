package extractor

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/identity"
)

var (
	atxHeading       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	underlineHeading = regexp.MustCompile(`(?m)^(.+)\r?\n=+[ \t]*$`)
)

// MarkdownFile extracts a single record from a local or remote markdown
// file. The content is already markdown, so it is kept verbatim.
type MarkdownFile struct {
	client *fetch.Client
}

func NewMarkdownFile(client *fetch.Client) *MarkdownFile {
	return &MarkdownFile{client: client}
}

func (m *MarkdownFile) Name() string { return "markdown" }

// CanHandle claims sources ending in .md, whether local paths or HTTP(S)
// URLs. The decision is purely shape-based; a missing local file surfaces
// during extraction.
func (m *MarkdownFile) CanHandle(source string) bool {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return strings.HasSuffix(strings.ToLower(u.Path), ".md")
	}
	return strings.HasSuffix(strings.ToLower(source), ".md")
}

func (m *MarkdownFile) Extract(ctx context.Context, source string) []corpus.Record {
	content, remote, err := m.load(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("markdown load failed")
		return nil
	}

	title := extractMarkdownTitle(content, source, remote)

	record := corpus.Record{
		ID:          identity.ID(source, title, 0),
		Title:       title,
		Content:     content,
		ContentType: corpus.TypeDocumentation,
		Tags:        []string{},
		Metadata:    map[string]string{"format": "markdown"},
	}
	if remote {
		record.SourceURL = source
	} else {
		record.Metadata["file_path"] = source
	}
	return []corpus.Record{record}
}

func (m *MarkdownFile) load(ctx context.Context, source string) (content string, remote bool, err error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, _, err := m.client.Get(ctx, source)
		if err != nil {
			return "", true, err
		}
		return string(body), true, nil
	}
	b, err := os.ReadFile(source)
	if err != nil {
		return "", false, err
	}
	return string(b), false, nil
}

// extractMarkdownTitle tries a level-1 heading, then an underline-style
// heading, then the basename without extension, then a fixed default.
func extractMarkdownTitle(content, source string, remote bool) string {
	if m := atxHeading.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := underlineHeading.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	base := ""
	if remote {
		if u, err := url.Parse(source); err == nil {
			base = path.Base(u.Path)
		}
	} else {
		base = filepath.Base(source)
	}
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." && stem != "/" {
		return stem
	}
	return "Untitled Markdown Document"
}
