package extractor

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
	"github.com/hyperifyio/gocorpus/internal/fetch"
	"github.com/hyperifyio/gocorpus/internal/identity"
	"github.com/hyperifyio/gocorpus/internal/locate"
	"github.com/hyperifyio/gocorpus/internal/markdown"
)

// DefaultMinContentChars is the minimum viable markdown length; shorter
// extractions are dropped rather than emitted truncated.
const DefaultMinContentChars = 100

// pagePipeline is the shared fetch → locate → normalize → metadata path used
// by the blog and substack extractors for individual pages.
type pagePipeline struct {
	client          *fetch.Client
	locator         *locate.Locator
	minContentChars int
}

func (p *pagePipeline) minChars() int {
	if p.minContentChars > 0 {
		return p.minContentChars
	}
	return DefaultMinContentChars
}

// extractPage processes a single content page into at most one record.
// body may carry an already-fetched page to avoid refetching; selectors, when
// non-empty, take priority over the locator's defaults. A failure at any
// stage logs and returns nil.
func (p *pagePipeline) extractPage(ctx context.Context, pageURL string, body []byte, contentType, untitled string, selectors []string) []corpus.Record {
	if body == nil {
		var err error
		body, _, err = p.client.Get(ctx, pageURL)
		if err != nil {
			log.Warn().Err(err).Str("url", pageURL).Msg("fetch failed")
			return nil
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("html parse failed")
		return nil
	}

	title := locate.Title(doc)
	if title == "" {
		log.Debug().Str("url", pageURL).Msg("no title found, using default")
		title = untitled
	}

	fragment := p.locator.LocateWith(string(body), pageURL, selectors)
	content := markdown.Convert(fragment)
	if len(content) < p.minChars() {
		log.Warn().Str("url", pageURL).Int("length", len(content)).Msg("content below minimum length, dropping")
		return nil
	}

	return []corpus.Record{{
		ID:            identity.ID(pageURL, title, 0),
		Title:         title,
		Content:       content,
		SourceURL:     pageURL,
		ContentType:   contentType,
		Author:        locate.Author(doc),
		DatePublished: locate.DatePublished(doc),
		Tags:          []string{},
		Metadata:      map[string]string{},
	}}
}

// delayRange sleeps for a uniformly random duration in [min, max] between
// requests during listing-page expansion. This is politeness toward the
// remote server, not a concurrency primitive. A zero max disables sleeping.
func delayRange(min, max time.Duration) {
	if max <= 0 {
		return
	}
	if min > max {
		min = max
	}
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span) + 1))
	}
	time.Sleep(d)
}
