// Package locate isolates the main article body inside noisy page markup and
// derives title/author/date metadata from structured and unstructured
// signals.
package locate

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"
)

// DefaultContentSelectors are tried in priority order when looking for the
// article container.
var DefaultContentSelectors = []string{
	"article",
	".post-content", ".entry-content", ".article-content",
	".content", ".main-content", ".post", ".entry",
	"main", "#content", "#main", "#main-content",
}

// DefaultNoiseSelectors name structural boilerplate that must be removed
// before any content-selection heuristic runs, so boilerplate cannot win by
// raw text length.
var DefaultNoiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"header", "footer", "nav",
	".sidebar", ".navigation", ".menu", ".ads", ".advertisement",
	".cookie-banner", ".social-media", ".comments",
	`[class*="cookie"]`, `[class*="banner"]`, `[id*="banner"]`,
	`[class*="popup"]`, `[id*="popup"]`, `[class*="modal"]`, `[id*="modal"]`,
}

// Locator selects the main content fragment of an HTML document. Selection
// is a greedy single pass: configured selectors first, then the largest
// block-level candidate, then a readability pass, then the document body,
// then the raw input.
type Locator struct {
	// ContentSelectors overrides DefaultContentSelectors when non-empty.
	ContentSelectors []string
	// NoiseSelectors overrides DefaultNoiseSelectors when non-empty.
	NoiseSelectors []string
	// MinTextLen is the minimum extracted text length for a candidate to
	// qualify. Zero means the 200-character default.
	MinTextLen int
}

func (l *Locator) contentSelectors() []string {
	if len(l.ContentSelectors) > 0 {
		return l.ContentSelectors
	}
	return DefaultContentSelectors
}

func (l *Locator) noiseSelectors() []string {
	if len(l.NoiseSelectors) > 0 {
		return l.NoiseSelectors
	}
	return DefaultNoiseSelectors
}

func (l *Locator) minTextLen() int {
	if l.MinTextLen > 0 {
		return l.MinTextLen
	}
	return 200
}

// Locate returns the HTML fragment judged to contain the main content of the
// page. pageURL is used only for resolving the readability fallback; it may
// be empty. Given identical input the result is identical.
func (l *Locator) Locate(htmlSrc, pageURL string) string {
	return l.LocateWith(htmlSrc, pageURL, nil)
}

// LocateWith is Locate with caller-supplied selectors tried before the
// locator's own list.
func (l *Locator) LocateWith(htmlSrc, pageURL string, selectors []string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		log.Debug().Err(err).Msg("content locate: parse failed, returning raw document")
		return htmlSrc
	}
	stripNoise(doc, l.noiseSelectors())

	if len(selectors) == 0 {
		selectors = l.contentSelectors()
	} else {
		selectors = append(append([]string{}, selectors...), l.contentSelectors()...)
	}
	for _, sel := range selectors {
		matches := doc.Find(sel)
		if matches.Length() == 0 {
			continue
		}
		if len(strings.TrimSpace(matches.Text())) <= l.minTextLen() {
			continue
		}
		if frag := outerHTML(matches); frag != "" {
			return frag
		}
	}

	// No selector qualified: take the single largest block-level candidate.
	var best *goquery.Selection
	bestLen := 0
	doc.Find("div, section, article").Each(func(_ int, s *goquery.Selection) {
		n := len(strings.TrimSpace(s.Text()))
		if n > bestLen {
			best = s
			bestLen = n
		}
	})
	if best != nil && bestLen > l.minTextLen() {
		if frag := outerHTML(best); frag != "" {
			return frag
		}
	}

	// Readability pass over the full document, tried before the body
	// fallback. Runs only when selector-based extraction found nothing
	// substantial.
	if frag := readabilityContent(htmlSrc, pageURL); frag != "" {
		return frag
	}

	if body := doc.Find("body"); body.Length() > 0 {
		if frag := outerHTML(body.First()); frag != "" {
			return frag
		}
	}
	return htmlSrc
}

func stripNoise(doc *goquery.Document, selectors []string) {
	for _, sel := range selectors {
		doc.Find(sel).Remove()
	}
}

// readabilityContent runs a readability-style extraction on the full
// document. Returns "" when readability fails or yields nothing.
func readabilityContent(htmlSrc, pageURL string) string {
	var u *url.URL
	if pageURL != "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			u = parsed
		}
	}
	article, err := readability.FromReader(strings.NewReader(htmlSrc), u)
	if err != nil {
		log.Debug().Err(err).Str("url", pageURL).Msg("readability fallback failed")
		return ""
	}
	return strings.TrimSpace(article.Content)
}

// outerHTML renders every node in the selection, concatenated in document
// order.
func outerHTML(s *goquery.Selection) string {
	var b strings.Builder
	s.Each(func(_ int, el *goquery.Selection) {
		if h, err := goquery.OuterHtml(el); err == nil {
			b.WriteString(h)
		}
	})
	return b.String()
}
