// Package language detects the dominant language of a text corpus and
// provides per-language stopword sets for keyword filtering.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Detect returns the ISO 639-1 code of the dominant language of text. The
// fallback is returned when the text is too short or the detection is not
// reliable enough to act on.
func Detect(text, fallback string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 40 {
		return fallback
	}
	info := whatlanggo.Detect(trimmed)
	if !info.IsReliable() {
		return fallback
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return fallback
	}
	return code
}
