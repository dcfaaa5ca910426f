package extractor

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/locate"
)

// DefaultArticleSelectors match "article card" elements used to classify a
// page as a listing.
var DefaultArticleSelectors = []string{"article", ".post", ".entry", ".blog-post"}

// DefaultLinkPatterns match hrefs that look like links to individual posts.
var DefaultLinkPatterns = []string{`/(article|post|blog)/`, `/\d{4}/\d{2}/`}

// defaultExcludedHosts are owned by more specific extractors; the generic
// blog matcher never claims them.
var defaultExcludedHosts = []string{"github.com", "substack.com", "drive.google.com"}

// BlogConfig tunes the generic blog extractor. Zero values select documented
// defaults.
type BlogConfig struct {
	ArticleSelectors []string
	LinkPatterns     []string
	// ListingCardThreshold and ListingLinkThreshold flip the listing-page
	// classification when strictly exceeded. Defaults 3 and 10.
	ListingCardThreshold int
	ListingLinkThreshold int
	DelayMin             time.Duration
	DelayMax             time.Duration
	MinContentChars      int
	// ExcludedHosts extends the built-in exclusion list.
	ExcludedHosts []string
}

// Blog extracts articles from generic blog sites. A listing page is expanded
// into its constituent article links; a single article page yields at most
// one record.
type Blog struct {
	pipeline pagePipeline
	cfg      BlogConfig
	patterns []*regexp.Regexp
	excluded []string
}

func NewBlog(client *fetch.Client, locator *locate.Locator, cfg BlogConfig) *Blog {
	if len(cfg.ArticleSelectors) == 0 {
		cfg.ArticleSelectors = DefaultArticleSelectors
	}
	if len(cfg.LinkPatterns) == 0 {
		cfg.LinkPatterns = DefaultLinkPatterns
	}
	if cfg.ListingCardThreshold <= 0 {
		cfg.ListingCardThreshold = 3
	}
	if cfg.ListingLinkThreshold <= 0 {
		cfg.ListingLinkThreshold = 10
	}
	b := &Blog{
		pipeline: pagePipeline{client: client, locator: locator, minContentChars: cfg.MinContentChars},
		cfg:      cfg,
		excluded: append(append([]string{}, defaultExcludedHosts...), cfg.ExcludedHosts...),
	}
	for _, p := range cfg.LinkPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn().Err(err).Str("pattern", p).Msg("invalid link pattern, skipping")
			continue
		}
		b.patterns = append(b.patterns, re)
	}
	return b
}

func (b *Blog) Name() string { return "blog" }

// CanHandle claims HTTP(S) URLs not owned by a more specific extractor:
// excluded hosts and .pdf/.md suffixes are left alone.
func (b *Blog) CanHandle(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, e := range b.excluded {
		if host == e || strings.HasSuffix(host, "."+e) {
			return false
		}
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".pdf") || strings.HasSuffix(path, ".md") {
		return false
	}
	return true
}

func (b *Blog) Extract(ctx context.Context, source string) []corpus.Record {
	body, _, err := b.pipeline.client.Get(ctx, source)
	if err != nil {
		log.Warn().Err(err).Str("url", source).Msg("blog fetch failed")
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		log.Warn().Err(err).Str("url", source).Msg("blog parse failed")
		return nil
	}

	if b.isListing(doc) {
		return b.expandListing(ctx, source, doc)
	}
	return b.pipeline.extractPage(ctx, source, body, corpus.TypeArticle, "Untitled Article", b.cfg.ArticleSelectors)
}

// isListing classifies the page. Strictly more article cards than the card
// threshold, or strictly more pattern-matching anchors than the link
// threshold, makes it a listing page.
func (b *Blog) isListing(doc *goquery.Document) bool {
	cards := doc.Find(strings.Join(b.cfg.ArticleSelectors, ", ")).Length()
	links := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		for _, re := range b.patterns {
			if re.MatchString(href) {
				links++
				return
			}
		}
	})
	return cards > b.cfg.ListingCardThreshold || links > b.cfg.ListingLinkThreshold
}

func (b *Blog) expandListing(ctx context.Context, source string, doc *goquery.Document) []corpus.Record {
	links := b.articleLinks(source, doc)
	log.Info().Int("count", len(links)).Str("url", source).Msg("expanding listing page")

	var out []corpus.Record
	for i, link := range links {
		if i > 0 {
			delayRange(b.cfg.DelayMin, b.cfg.DelayMax)
		}
		records := b.pipeline.extractPage(ctx, link, nil, corpus.TypeArticle, "Untitled Article", b.cfg.ArticleSelectors)
		out = append(out, records...)
	}
	return out
}

// articleLinks collects same-domain links matching the configured patterns,
// de-duplicated and order-preserving.
func (b *Blog) articleLinks(source string, doc *goquery.Document) []string {
	base, err := url.Parse(source)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		matched := false
		for _, re := range b.patterns {
			if re.MatchString(href) {
				matched = true
				break
			}
		}
		if !matched {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Hostname() != base.Hostname() {
			return
		}
		link := abs.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}
