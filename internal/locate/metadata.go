package locate

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var titleSelectors = []string{".post-title", ".entry-title", ".article-title", "h1.title", "h1"}

var authorSelectors = []string{".author", ".byline", ".post-author", ".entry-author", ".meta-author"}

var dateSelectors = []string{
	".date", ".published", ".post-date", ".entry-date",
	`[itemprop="datePublished"]`, ".meta-date", ".time",
}

// Trailing "| Site Name" style suffixes on document titles.
var titleSuffix = regexp.MustCompile(`\s*[|\x{2013}\x{2014}-].*$`)

// Title extracts the page title: post-title selectors first, then the
// document title with the trailing site-name suffix stripped at the first
// separator. Returns "" when nothing is found.
func Title(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if t := strings.TrimSpace(el.Text()); t != "" {
				return t
			}
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return strings.TrimSpace(titleSuffix.ReplaceAllString(t, ""))
	}
	return ""
}

// Author resolves the page author by fixed priority: author-class selectors,
// rel/itemprop attributes, meta tags, then JSON-LD structured data. The
// first match wins; signals are never merged.
func Author(doc *goquery.Document) string {
	for _, sel := range authorSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if a := strings.TrimSpace(el.Text()); a != "" {
				return a
			}
		}
	}
	for _, sel := range []string{`[rel="author"]`, `[itemprop="author"]`} {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if a := strings.TrimSpace(el.Text()); a != "" {
				return a
			}
		}
	}
	for _, sel := range []string{`meta[name="author"]`, `meta[property="author"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if a := strings.TrimSpace(content); a != "" {
				return a
			}
		}
	}
	if a := jsonLDAuthor(doc); a != "" {
		return a
	}
	return ""
}

// DatePublished resolves the publication date by fixed priority: <time>
// datetime attribute, <time> text, date-class selectors (datetime attribute
// preferred over inner text), publish/date meta tags, then JSON-LD. The date
// string is preserved verbatim from the source.
func DatePublished(doc *goquery.Document) string {
	if el := doc.Find("time").First(); el.Length() > 0 {
		if dt, ok := el.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if t := strings.TrimSpace(el.Text()); t != "" {
			return t
		}
	}
	for _, sel := range dateSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if dt, ok := el.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if t := strings.TrimSpace(el.Text()); t != "" {
			return t
		}
	}
	if d := metaDate(doc); d != "" {
		return d
	}
	if d := jsonLDDate(doc); d != "" {
		return d
	}
	return ""
}

func metaDate(doc *goquery.Document) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		prop, _ := s.Attr("property")
		key := strings.ToLower(name + " " + prop)
		if !strings.Contains(key, "publish") && !strings.Contains(key, "date") {
			return true
		}
		if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
			found = strings.TrimSpace(content)
			return false
		}
		return true
	})
	return found
}

func jsonLDAuthor(doc *goquery.Document) string {
	var found string
	eachJSONLD(doc, func(data map[string]any) bool {
		switch author := data["author"].(type) {
		case map[string]any:
			if name, ok := author["name"].(string); ok && strings.TrimSpace(name) != "" {
				found = strings.TrimSpace(name)
				return false
			}
		case string:
			if strings.TrimSpace(author) != "" {
				found = strings.TrimSpace(author)
				return false
			}
		}
		return true
	})
	return found
}

func jsonLDDate(doc *goquery.Document) string {
	var found string
	eachJSONLD(doc, func(data map[string]any) bool {
		if d, ok := data["datePublished"].(string); ok && strings.TrimSpace(d) != "" {
			found = strings.TrimSpace(d)
			return false
		}
		return true
	})
	return found
}

func eachJSONLD(doc *goquery.Document, fn func(map[string]any) bool) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		return fn(data)
	})
}
