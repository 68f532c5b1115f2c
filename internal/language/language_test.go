package language

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		fallback string
		want     string
	}{
		{
			name:     "english prose",
			text:     "Search engine optimization is the process of improving the quality and quantity of website traffic to a website or a web page from search engines.",
			fallback: "bg",
			want:     "en",
		},
		{
			name:     "german prose",
			text:     "Suchmaschinenoptimierung bezeichnet Maßnahmen, die dazu dienen, die Sichtbarkeit einer Website und ihrer Inhalte für Benutzer einer Suchmaschine zu erhöhen.",
			fallback: "en",
			want:     "de",
		},
		{
			name:     "too short falls back",
			text:     "hello world",
			fallback: "en",
			want:     "en",
		},
		{
			name:     "empty falls back",
			text:     "",
			fallback: "fr",
			want:     "fr",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.text, tc.fallback); got != tc.want {
				t.Errorf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStopwordsKnownLanguage(t *testing.T) {
	en := Stopwords("en")
	if _, ok := en["the"]; !ok {
		t.Error(`English set should contain "the"`)
	}
	de := Stopwords("de")
	if _, ok := de["und"]; !ok {
		t.Error(`German set should contain "und"`)
	}
}

func TestStopwordsUnknownFallsBackToEnglish(t *testing.T) {
	set := Stopwords("xx")
	if _, ok := set["and"]; !ok {
		t.Error(`fallback set should contain "and"`)
	}
}
