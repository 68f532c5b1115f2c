// Package keywords turns a crawled page corpus into a ranked list of
// keyword phrases. Candidate phrases are 1 to 4 word n-grams drawn from
// seven weighted content zones, aggregated across the corpus, reweighted by
// document frequency and site-wide presence, noise-filtered, and min-max
// normalized to a 0 to 100 score.
package keywords

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pgnikolov/seoapp/internal/language"
	"github.com/pgnikolov/seoapp/pkg/types"
)

const (
	minNgram = 1
	maxNgram = 4

	// How much body text per page feeds language detection.
	detectBodyPrefix = 500
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Options tunes a Scorer.
type Options struct {
	// DefaultLanguage is the ISO 639-1 code used when detection fails and
	// no hint is given. Empty means "en".
	DefaultLanguage string
	// MaxResults caps the ranked list; zero or negative means unlimited.
	MaxResults int
}

// Scorer ranks keyword phrases for a crawl corpus. It is stateless across
// calls and safe for concurrent use.
type Scorer struct {
	opts Options
}

func NewScorer(opts Options) *Scorer {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	return &Scorer{opts: opts}
}

// phraseStats accumulates one phrase's evidence across the corpus.
type phraseStats struct {
	weighted    float64
	occurrences int
	pages       int
	zones       map[string]int
	topPage     string
	topScore    float64
	order       int
}

// Score ranks the corpus's keyword phrases, deterministic for a given corpus
// order and language hint. An empty corpus yields an empty list.
func (s *Scorer) Score(corpus []types.PageRecord, languageHint string) []types.KeywordResult {
	if len(corpus) == 0 {
		return nil
	}

	lang := languageHint
	if lang == "" {
		lang = language.Detect(detectionSample(corpus), s.opts.DefaultLanguage)
	}
	stopwords := language.Stopwords(lang)

	stats := make(map[string]*phraseStats)
	order := 0
	for _, page := range corpus {
		pageAgg, phraseOrder := s.scorePage(page, stopwords)
		for _, phrase := range phraseOrder {
			agg := pageAgg[phrase]
			st, ok := stats[phrase]
			if !ok {
				st = &phraseStats{zones: make(map[string]int), order: order}
				order++
				stats[phrase] = st
			}
			st.weighted += agg.weighted
			st.occurrences += agg.count
			st.pages++
			for zone, n := range agg.zones {
				st.zones[zone] += n
			}
			if agg.weighted > st.topScore {
				st.topScore = agg.weighted
				st.topPage = page.URL
			}
		}
	}

	total := float64(len(corpus))
	type ranked struct {
		phrase string
		raw    float64
		st     *phraseStats
	}
	survivors := make([]ranked, 0, len(stats))
	for phrase, st := range stats {
		if isNoise(st) {
			continue
		}
		idf := math.Log10(total / float64(st.pages))
		boost := 1 + 0.1*float64(st.pages)
		survivors = append(survivors, ranked{
			phrase: phrase,
			raw:    st.weighted * (1 + idf) * boost,
			st:     st,
		})
	}
	if len(survivors) == 0 {
		return nil
	}

	// Encounter order first, so the stable score sort resolves remaining
	// ties deterministically. Among equal raw scores, longer phrases rank
	// first: "seo tool" beats its constituent unigrams.
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].st.order < survivors[j].st.order
	})
	maxRaw := survivors[0].raw
	for _, r := range survivors[1:] {
		if r.raw > maxRaw {
			maxRaw = r.raw
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].raw != survivors[j].raw {
			return survivors[i].raw > survivors[j].raw
		}
		return wordCount(survivors[i].phrase) > wordCount(survivors[j].phrase)
	})

	limit := len(survivors)
	if s.opts.MaxResults > 0 && s.opts.MaxResults < limit {
		limit = s.opts.MaxResults
	}
	results := make([]types.KeywordResult, 0, limit)
	for _, r := range survivors[:limit] {
		results = append(results, types.KeywordResult{
			Phrase:      r.phrase,
			Score:       math.Round(r.raw/maxRaw*100*100) / 100,
			Occurrences: r.st.occurrences,
			PagesCount:  r.st.pages,
			TopPage:     r.st.topPage,
			SourceMix:   r.st.zones,
			Intent:      classifyIntent(r.phrase),
			Language:    lang,
		})
	}
	return results
}

// pageAgg is one phrase's evidence within a single page.
type pageAgg struct {
	weighted float64
	count    int
	zones    map[string]int
}

// scorePage aggregates one page's candidate phrases. The returned slice
// preserves first-encounter order across zones.
func (s *Scorer) scorePage(page types.PageRecord, stopwords map[string]struct{}) (map[string]*pageAgg, []string) {
	agg := make(map[string]*pageAgg)
	var phraseOrder []string
	addZone := func(zone, text string) {
		weight := zoneWeights[zone]
		for _, phrase := range candidatePhrases(text, stopwords) {
			a, ok := agg[phrase]
			if !ok {
				a = &pageAgg{zones: make(map[string]int)}
				agg[phrase] = a
				phraseOrder = append(phraseOrder, phrase)
			}
			a.weighted += weight
			a.count++
			a.zones[zone]++
		}
	}

	addZone(ZoneTitle, page.Title)
	for _, h := range page.H1 {
		addZone(ZoneH1, h)
	}
	for _, h := range page.H2 {
		addZone(ZoneH2, h)
	}
	for _, h := range page.H3 {
		addZone(ZoneH3, h)
	}
	for _, link := range page.Links {
		addZone(ZoneAnchor, link.Anchor)
	}
	addZone(ZoneMeta, page.MetaDescription)
	addZone(ZoneBody, page.Body)
	return agg, phraseOrder
}

func wordCount(phrase string) int {
	return strings.Count(phrase, " ") + 1
}

// candidatePhrases normalizes one zone text unit and emits its surviving 1
// to 4 word n-grams.
func candidatePhrases(text string, stopwords map[string]struct{}) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	var phrases []string
	for n := minNgram; n <= maxNgram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i : i+n]
			if !keepPhrase(gram, stopwords) {
				continue
			}
			phrases = append(phrases, strings.Join(gram, " "))
		}
	}
	return phrases
}

func tokenize(text string) []string {
	normalized := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(normalized)
}

// keepPhrase rejects all-stopword phrases, all-numeric phrases, and
// single-character unigrams.
func keepPhrase(gram []string, stopwords map[string]struct{}) bool {
	if len(gram) == 1 && len([]rune(gram[0])) < 2 {
		return false
	}
	allStop, allNumeric := true, true
	for _, word := range gram {
		if _, ok := stopwords[word]; !ok {
			allStop = false
		}
		if !isNumeric(word) {
			allNumeric = false
		}
	}
	return !allStop && !allNumeric
}

func isNumeric(word string) bool {
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(word) > 0
}

// isNoise drops a phrase seen exactly once corpus-wide when that single
// occurrence is an unreinforced body mention.
func isNoise(st *phraseStats) bool {
	if st.occurrences != 1 {
		return false
	}
	if st.zones[ZoneBody] != 1 {
		return false
	}
	return st.zones[ZoneTitle] == 0 && st.zones[ZoneH1] == 0
}

// classifyIntent matches intent signal words as substrings of the phrase,
// commercial first, then informational, then navigational. Unmatched
// phrases default to informational.
func classifyIntent(phrase string) string {
	for _, signal := range commercialSignals {
		if strings.Contains(phrase, signal) {
			return IntentCommercial
		}
	}
	for _, signal := range informationalSignals {
		if strings.Contains(phrase, signal) {
			return IntentInformational
		}
	}
	for _, signal := range navigationalSignals {
		if strings.Contains(phrase, signal) {
			return IntentNavigational
		}
	}
	return IntentInformational
}

func detectionSample(corpus []types.PageRecord) string {
	var b strings.Builder
	for _, page := range corpus {
		b.WriteString(page.Title)
		b.WriteByte(' ')
		b.WriteString(truncateOnRune(page.Body, detectBodyPrefix))
		b.WriteByte(' ')
	}
	return b.String()
}

// truncateOnRune cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
