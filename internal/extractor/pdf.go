package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/gdrive"
	"github.com/hyperifyio/gocorpus/internal/identity"
	"github.com/hyperifyio/gocorpus/internal/markdown"
)

// Validation failures are distinguishable so an access-denied HTML page is
// never reported as a generic parse error.
var (
	ErrEmptyPDF = errors.New("pdf file is empty")
	ErrNotPDF   = errors.New("file is not a pdf")
	// ErrHTMLNotPDF is the common Drive failure mode: the link resolved to
	// an HTML page (usually access denied) instead of the file.
	ErrHTMLNotPDF = errors.New("got an html page instead of a pdf; check that the file is shared with 'anyone with the link'")
)

// DefaultChapterPatterns segment a document at chapter headings. Patterns
// are boundary regexes: text between consecutive matches becomes one
// chapter. The first pattern that matches anywhere wins for the whole
// document.
var DefaultChapterPatterns = []string{
	`(?mi)^[ \t]*chapter[ \t]+(\d+|[ivxlc]+)[:. \t]+[ \t]*(.*)$`,
	`(?mi)^[ \t]*chapter[ \t]+(\d+|[ivxlc]+)[ \t]*$`,
}

var (
	pageNumberLine = regexp.MustCompile(`\n\s*\d+\s*\n`)
	brokenWord     = regexp.MustCompile(`([a-z])\n([a-z])`)
	headingLike    = regexp.MustCompile(`^[A-Z][\w\s\-]+$`)
)

// PDFConfig tunes the PDF extractor.
type PDFConfig struct {
	// ChapterPatterns override DefaultChapterPatterns when non-empty.
	ChapterPatterns []string
	// MaxChapters caps emitted chapters. Zero means no cap.
	MaxChapters int
	// TempDir receives Drive downloads. Empty means a directory under the
	// system temp dir.
	TempDir string
}

// PDF extracts text from local PDF files and Google-Drive-hosted PDFs,
// emitting one record per detected chapter or a single record for the whole
// document.
type PDF struct {
	cfg        PDFConfig
	downloader *gdrive.Downloader
	patterns   []*regexp.Regexp
}

func NewPDF(downloader *gdrive.Downloader, cfg PDFConfig) *PDF {
	raw := cfg.ChapterPatterns
	if len(raw) == 0 {
		raw = DefaultChapterPatterns
	}
	p := &PDF{cfg: cfg, downloader: downloader}
	for _, pattern := range raw {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("invalid chapter pattern, skipping")
			continue
		}
		p.patterns = append(p.patterns, re)
	}
	return p
}

func (p *PDF) Name() string { return "pdf" }

// CanHandle claims .pdf paths and URLs plus anything hosted on Google Drive.
// URL sources are judged on the parsed host and path, so a .pdf or Drive
// mention inside a query string does not claim the source.
func (p *PDF) CanHandle(source string) bool {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return isDriveHost(u.Hostname()) || strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(source), ".pdf")
}

func isDriveHost(hostname string) bool {
	host := strings.ToLower(hostname)
	return host == "drive.google.com" || host == "www.drive.google.com"
}

func isDriveURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && isDriveHost(u.Hostname())
}

func (p *PDF) Extract(ctx context.Context, source string) []corpus.Record {
	path := source
	sourceURL := ""
	if isDriveURL(source) {
		sourceURL = source
		downloaded, err := p.downloadFromDrive(ctx, source)
		if err != nil {
			log.Error().Err(err).Str("url", source).Msg("drive download failed")
			return nil
		}
		path = downloaded
	} else if strings.HasPrefix(strings.ToLower(source), "http://") || strings.HasPrefix(strings.ToLower(source), "https://") {
		sourceURL = source
		downloaded, err := p.downloadDirect(ctx, source)
		if err != nil {
			log.Error().Err(err).Str("url", source).Msg("pdf download failed")
			return nil
		}
		path = downloaded
	}

	if err := ValidatePDF(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("pdf validation failed")
		return nil
	}

	full, page1, metaTitle, metaAuthor, err := extractPDFText(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("pdf text extraction failed")
		return nil
	}
	if strings.TrimSpace(full) == "" {
		log.Error().Str("path", path).Msg("pdf contains no extractable text")
		return nil
	}

	sourceID := source
	filename := filepath.Base(path)

	chapters := segmentChapters(full, p.patterns)
	if len(chapters) == 0 {
		title := metaTitle
		if title == "" {
			title = firstShortLine(page1)
		}
		if title == "" {
			title = filename
		}
		return []corpus.Record{{
			ID:          identity.ID(sourceID, title, 0),
			Title:       title,
			Content:     cleanPDFText(full),
			SourceURL:   sourceURL,
			ContentType: corpus.TypeDocument,
			Author:      metaAuthor,
			Tags:        []string{},
			Metadata:    map[string]string{"pdf_filename": filename},
		}}
	}

	if p.cfg.MaxChapters > 0 && len(chapters) > p.cfg.MaxChapters {
		chapters = chapters[:p.cfg.MaxChapters]
	}
	records := make([]corpus.Record, 0, len(chapters))
	for i, ch := range chapters {
		ordinal := i + 1
		records = append(records, corpus.Record{
			ID:          identity.ID(sourceID, ch.title, ordinal),
			Title:       ch.title,
			Content:     cleanPDFText(ch.content),
			SourceURL:   sourceURL,
			ContentType: corpus.TypeBookChapter,
			Author:      metaAuthor,
			Tags:        []string{},
			Metadata: map[string]string{
				"chapter_number": ch.number,
				"pdf_filename":   filename,
			},
		})
	}
	return records
}

func (p *PDF) tempDir() string {
	if p.cfg.TempDir != "" {
		return p.cfg.TempDir
	}
	return filepath.Join(os.TempDir(), "gocorpus-pdf")
}

func (p *PDF) downloadFromDrive(ctx context.Context, source string) (string, error) {
	fileID, err := gdrive.FileID(source)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(p.tempDir(), fileID+".pdf")
	if err := p.downloader.Download(ctx, fileID, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (p *PDF) downloadDirect(ctx context.Context, source string) (string, error) {
	body, _, err := p.downloader.Client.Get(ctx, source)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(p.tempDir(), filepath.Base(source))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

// ValidatePDF gates the text-extraction stage: the file must be non-empty,
// must not be an HTML page, and must start with the %PDF- magic number.
func ValidatePDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, _ := f.Read(head)
	head = head[:n]
	if len(head) == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyPDF)
	}
	if gdrive.LooksLikeHTML(head) {
		return fmt.Errorf("%s: %w", path, ErrHTMLNotPDF)
	}
	if !strings.HasPrefix(string(head), "%PDF-") {
		preview := head
		if len(preview) > 16 {
			preview = preview[:16]
		}
		return fmt.Errorf("%s starts with %q: %w", path, string(preview), ErrNotPDF)
	}
	return nil
}

// extractPDFText parses the file and concatenates page text. The parser
// indexes deep into untrusted structures, so a panic is treated as a parse
// error.
func extractPDFText(path string) (full, page1, metaTitle, metaAuthor string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse: %v", r)
		}
	}()
	f, reader, oerr := pdf.Open(path)
	if oerr != nil {
		return "", "", "", "", fmt.Errorf("pdf open: %w", oerr)
	}
	defer f.Close()

	metaTitle, metaAuthor = documentInfo(reader)

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			log.Debug().Err(perr).Int("page", i).Str("path", path).Msg("page text extraction failed")
			continue
		}
		if i == 1 {
			page1 = text
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), page1, metaTitle, metaAuthor, nil
}

func documentInfo(reader *pdf.Reader) (title, author string) {
	defer func() { _ = recover() }()
	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return "", ""
	}
	if v := info.Key("Title"); v.Kind() == pdf.String {
		title = strings.TrimSpace(v.RawString())
	}
	if v := info.Key("Author"); v.Kind() == pdf.String {
		author = strings.TrimSpace(v.RawString())
	}
	return title, author
}

type chapter struct {
	number  string
	title   string
	content string
}

// segmentChapters applies the configured boundary patterns in order and uses
// the first pattern family that yields at least one match. Text between
// consecutive boundaries becomes one chapter.
func segmentChapters(text string, patterns []*regexp.Regexp) []chapter {
	for _, re := range patterns {
		matches := re.FindAllStringSubmatchIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		chapters := make([]chapter, 0, len(matches))
		for i, m := range matches {
			start := m[0]
			end := len(text)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			number := submatch(text, m, 1)
			heading := strings.TrimSpace(submatch(text, m, 2))
			title := "Chapter " + number
			if heading == "" {
				heading = firstShortLine(text[m[1]:end])
			}
			if heading != "" && len(heading) < 100 {
				title = fmt.Sprintf("Chapter %s: %s", number, heading)
			}
			chapters = append(chapters, chapter{
				number:  number,
				title:   title,
				content: strings.TrimSpace(text[start:end]),
			})
		}
		return chapters
	}
	return nil
}

func submatch(text string, m []int, group int) string {
	lo, hi := 2*group, 2*group+1
	if hi >= len(m) || m[lo] < 0 {
		return ""
	}
	return text[m[lo]:m[hi]]
}

// firstShortLine returns the first non-empty line under 100 characters.
func firstShortLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len(trimmed) < 100 {
			return trimmed
		}
	}
	return ""
}

// cleanPDFText repairs common extraction artifacts: bare page-number lines,
// words broken across line wraps, and short title-case lines promoted to
// headings.
func cleanPDFText(text string) string {
	text = pageNumberLine.ReplaceAllString(text, "\n\n")
	text = brokenWord.ReplaceAllString(text, "$1 $2")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 0 && len(trimmed) < 80 && headingLike.MatchString(trimmed) && !strings.HasPrefix(trimmed, "#") {
			out = append(out, "## "+trimmed)
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(markdown.Collapse(strings.Join(out, "\n")))
}
