package extractor

import (
	"net/url"
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title> SEO  Tool </title>
	<meta name="description" content="Analyse your website keywords.">
</head>
<body>
	<header><a href="/home">Home nav</a></header>
	<nav><ul><li>Products</li></ul></nav>
	<h1>Best SEO Tool</h1>
	<h2>Features</h2>
	<h2>Pricing</h2>
	<h3>Keyword reports</h3>
	<p>This is a great seo tool for keywords.</p>
	<a href="/pricing">See pricing</a>
	<a href="/pricing#plans">Plans</a>
	<a href="https://sub.example.com/docs">Docs</a>
	<a href="https://other.org/away">Elsewhere</a>
	<a href="mailto:hi@example.com">Mail us</a>
	<a href="javascript:void(0)">Click</a>
	<script>var tracking = "should not appear";</script>
	<footer>Copyright footer text</footer>
</body>
</html>`

func extract(t *testing.T, includeSubdomains bool) *ZoneSet {
	t.Helper()
	base, err := url.Parse("https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	zones, err := Extract([]byte(samplePage), base, Scope{Base: base, IncludeSubdomains: includeSubdomains}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return zones
}

func TestExtractZones(t *testing.T) {
	zones := extract(t, false)

	if zones.Title != "SEO Tool" {
		t.Errorf("title = %q, want %q", zones.Title, "SEO Tool")
	}
	if zones.MetaDescription != "Analyse your website keywords." {
		t.Errorf("meta description = %q", zones.MetaDescription)
	}
	if len(zones.H1) != 1 || zones.H1[0] != "Best SEO Tool" {
		t.Errorf("h1 = %v", zones.H1)
	}
	if len(zones.H2) != 2 {
		t.Errorf("h2 = %v, want 2 entries", zones.H2)
	}
	if len(zones.H3) != 1 || zones.H3[0] != "Keyword reports" {
		t.Errorf("h3 = %v", zones.H3)
	}
}

func TestBodyStripsChrome(t *testing.T) {
	zones := extract(t, false)

	for _, banned := range []string{"should not appear", "Copyright footer", "Home nav", "Products"} {
		if contains(zones.Body, banned) {
			t.Errorf("body should not contain %q: %q", banned, zones.Body)
		}
	}
	if !contains(zones.Body, "great seo tool") {
		t.Errorf("body should contain paragraph text: %q", zones.Body)
	}
}

func TestLinkDiscoveryScope(t *testing.T) {
	zones := extract(t, false)

	want := map[string]bool{
		"https://example.com/pricing": false,
	}
	for _, link := range zones.Links {
		if link.URL == "https://other.org/away" || link.URL == "https://sub.example.com/docs" {
			t.Errorf("off-scope link recorded: %q", link.URL)
		}
		if _, ok := want[link.URL]; ok {
			want[link.URL] = true
		}
	}
	for u, seen := range want {
		if !seen {
			t.Errorf("expected link %q in result", u)
		}
	}

	// /pricing and /pricing#plans normalise to the same URL.
	count := 0
	for _, link := range zones.Links {
		if link.URL == "https://example.com/pricing" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate normalised links: got %d entries for /pricing", count)
	}
}

func TestLinkDiscoverySkipsChromeLinks(t *testing.T) {
	page := `<html><body>
	<nav><a href="/login">Login</a></nav>
	<main><a href="/article">Read the article</a></main>
	<footer><a href="/privacy">Privacy Policy</a></footer>
	</body></html>`
	base, err := url.Parse("https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	zones, err := Extract([]byte(page), base, Scope{Base: base}, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(zones.Links) != 1 {
		t.Fatalf("links = %v, want only the main-content link", zones.Links)
	}
	if zones.Links[0].URL != "https://example.com/article" {
		t.Errorf("link = %q, want /article", zones.Links[0].URL)
	}
	for _, link := range zones.Links {
		if link.Anchor == "Login" || link.Anchor == "Privacy Policy" {
			t.Errorf("chrome anchor leaked into links: %q", link.Anchor)
		}
	}
}

func TestLinkDiscoveryWithSubdomains(t *testing.T) {
	zones := extract(t, true)

	found := false
	for _, link := range zones.Links {
		if link.URL == "https://sub.example.com/docs" {
			found = true
			if link.Anchor != "Docs" {
				t.Errorf("anchor = %q, want Docs", link.Anchor)
			}
		}
	}
	if !found {
		t.Error("expected subdomain link when subdomains are included")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
