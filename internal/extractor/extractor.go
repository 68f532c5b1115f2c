// Package extractor turns raw HTML into the semantic zones the keyword
// scorer consumes: title, meta description, headings, body text, and the
// in-scope links that feed the crawl frontier.
package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pgnikolov/seoapp/internal/urlutil"
	"github.com/pgnikolov/seoapp/pkg/types"
)

// Scope is the domain predicate applied to discovered links.
type Scope struct {
	Base              *url.URL
	IncludeSubdomains bool
}

// InScope reports whether the target belongs to the crawl scope.
func (s Scope) InScope(target *url.URL) bool {
	return urlutil.SameDomain(s.Base, target, s.IncludeSubdomains)
}

// Options tunes link discovery.
type Options struct {
	MaxLinksPerPage int
}

// ZoneSet is the structured per-page extraction result.
type ZoneSet struct {
	Title           string
	MetaDescription string
	H1              []string
	H2              []string
	H3              []string
	Body            string
	Links           []types.Link
}

// Extract parses the markup and returns the page zones. Links are resolved
// against the effective URL, normalised, and filtered to the scope; off-scope
// links are discarded entirely.
func Extract(markup []byte, effective *url.URL, scope Scope, opts Options) (*ZoneSet, error) {
	if len(markup) == 0 {
		return nil, fmt.Errorf("empty markup")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	zones := &ZoneSet{
		Title:           cleanText(doc.Find("title").First().Text()),
		MetaDescription: metaDescription(doc),
		H1:              headingTexts(doc, "h1"),
		H2:              headingTexts(doc, "h2"),
		H3:              headingTexts(doc, "h3"),
	}

	// Chrome and boilerplate are dropped before both link discovery and
	// body text: nav and footer links never enter the frontier, and their
	// labels never feed the anchor or body zones.
	doc.Find("script,style,noscript,nav,header,footer,aside").Remove()

	zones.Links = extractLinks(doc, effective, scope, opts)

	body := doc.Find("body")
	if body.Length() > 0 {
		zones.Body = cleanText(body.Text())
	} else {
		zones.Body = cleanText(doc.Text())
	}

	return zones, nil
}

func metaDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		return cleanText(content)
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		return cleanText(content)
	}
	return ""
}

func headingTexts(doc *goquery.Document, tag string) []string {
	var out []string
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func extractLinks(doc *goquery.Document, base *url.URL, scope Scope, opts Options) []types.Link {
	if base == nil {
		return nil
	}
	maxLinks := opts.MaxLinksPerPage
	if maxLinks <= 0 {
		maxLinks = 200
	}

	seen := make(map[string]struct{})
	links := make([]types.Link, 0, 16)

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return true
		}

		target, err := urlutil.Resolve(base, href)
		if err != nil {
			return true
		}
		if !urlutil.IsValid(target) {
			return true
		}
		if !scope.InScope(target) {
			return true
		}

		key := urlutil.NormalizeURL(target)
		if _, exists := seen[key]; exists {
			return true
		}
		seen[key] = struct{}{}
		links = append(links, types.Link{URL: key, Anchor: cleanText(s.Text())})
		return len(links) < maxLinks
	})

	return links
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
