package extractor

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/locate"
)

// substackAuthorSelectors find the publication's principal author on the
// landing page, tried in order before the meta-tag fallbacks.
var substackAuthorSelectors = []string{
	".header-author",
	".author-name",
	".site-author",
	"h1.author",
}

// substackPostSelectors pick the post body out of Substack's markup before
// the generic selector chain runs.
var substackPostSelectors = []string{
	".single-post",
	".post-content",
	".substack-post",
	"article",
	".post",
}

// SubstackConfig tunes the Substack extractor.
type SubstackConfig struct {
	// DelayMin and DelayMax bound the random pause between post fetches.
	DelayMin time.Duration
	DelayMax time.Duration
	// MinContentChars drops posts whose markdown is shorter. Zero means
	// DefaultMinContentChars.
	MinContentChars int
}

// Substack crawls a Substack publication: it reads the principal author
// from the landing page, walks the archive for post links, and extracts
// each post as a newsletter record. Posts by a different author are kept
// but flagged in metadata.
type Substack struct {
	client *fetch.Client
	pages  *pagePipeline
	cfg    SubstackConfig
}

func NewSubstack(client *fetch.Client, locator *locate.Locator, cfg SubstackConfig) *Substack {
	min := cfg.MinContentChars
	if min <= 0 {
		min = DefaultMinContentChars
	}
	return &Substack{
		client: client,
		pages:  &pagePipeline{client: client, locator: locator, minContentChars: min},
		cfg:    cfg,
	}
}

func (s *Substack) Name() string { return "substack" }

// CanHandle claims any URL on a substack.com host.
func (s *Substack) CanHandle(source string) bool {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "substack.com" || strings.HasSuffix(host, ".substack.com")
}

func (s *Substack) Extract(ctx context.Context, source string) []corpus.Record {
	body, _, err := s.client.Get(ctx, source)
	if err != nil {
		log.Error().Err(err).Str("url", source).Msg("substack landing fetch failed")
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		log.Error().Err(err).Str("url", source).Msg("substack landing parse failed")
		return nil
	}

	principal := principalAuthor(doc)
	archiveURL, archiveDoc := s.archive(ctx, source, doc)
	links := postLinks(archiveDoc, archiveURL)
	if len(links) == 0 {
		log.Warn().Str("url", source).Msg("no post links found")
		return nil
	}
	log.Info().Str("url", source).Int("posts", len(links)).Str("author", principal).Msg("crawling substack publication")

	var records []corpus.Record
	for i, link := range links {
		if i > 0 {
			delayRange(s.cfg.DelayMin, s.cfg.DelayMax)
		}
		recs := s.pages.extractPage(ctx, link, nil, corpus.TypeNewsletter, "Untitled Post", substackPostSelectors)
		if len(recs) == 0 {
			continue
		}
		rec := recs[0]
		rec.Metadata["platform"] = "Substack"
		if rec.Author == "" {
			rec.Author = principal
		} else if principal != "" && !strings.EqualFold(rec.Author, principal) {
			rec.Metadata["author_mismatch"] = "true"
			rec.Metadata["publication_author"] = principal
		}
		records = append(records, rec)
	}
	return records
}

// archive follows the landing page's archive link when one exists, falling
// back to the landing page itself.
func (s *Substack) archive(ctx context.Context, landingURL string, landing *goquery.Document) (string, *goquery.Document) {
	href := ""
	landing.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		h, _ := sel.Attr("href")
		if strings.Contains(h, "/archive") {
			href = h
			return false
		}
		return true
	})
	if href == "" {
		return landingURL, landing
	}
	resolved := absolutize(landingURL, href)
	body, _, err := s.client.Get(ctx, resolved)
	if err != nil {
		log.Warn().Err(err).Str("url", resolved).Msg("archive fetch failed, using landing page")
		return landingURL, landing
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return landingURL, landing
	}
	return resolved, doc
}

// principalAuthor reads the publication's author from the landing page.
func principalAuthor(doc *goquery.Document) string {
	for _, sel := range substackAuthorSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	if content, ok := doc.Find(`meta[name="author"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	if content, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}
	return ""
}

// postLinks collects /p/ post URLs in document order, deduplicated.
func postLinks(doc *goquery.Document, baseURL string) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := absolutize(baseURL, href)
		u, err := url.Parse(resolved)
		if err != nil {
			return
		}
		if !strings.HasPrefix(u.Path, "/p/") || u.Path == "/p/" {
			return
		}
		u.Fragment = ""
		u.RawQuery = ""
		clean := u.String()
		if seen[clean] {
			return
		}
		seen[clean] = true
		links = append(links, clean)
	})
	return links
}

func absolutize(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
