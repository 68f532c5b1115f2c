package keywords

// Zone names used in source-mix breakdowns and zone weighting.
const (
	ZoneTitle  = "title"
	ZoneH1     = "h1"
	ZoneH2     = "h2"
	ZoneH3     = "h3"
	ZoneAnchor = "anchor"
	ZoneMeta   = "meta"
	ZoneBody   = "body"
)

// Search intent labels attached to scored phrases.
const (
	IntentCommercial    = "commercial"
	IntentInformational = "informational"
	IntentNavigational  = "navigational"
)

// zoneWeights encodes the relative SEO significance of each content zone.
// These are tuning constants, kept as data so they can change without
// touching the aggregation logic.
var zoneWeights = map[string]float64{
	ZoneTitle:  4.0,
	ZoneH1:     3.0,
	ZoneH2:     2.0,
	ZoneH3:     2.0,
	ZoneAnchor: 2.0,
	ZoneMeta:   1.5,
	ZoneBody:   1.0,
}

// Intent signal words matched as substrings of a phrase, in priority order:
// commercial beats informational beats navigational.
var (
	commercialSignals = []string{
		"buy", "price", "pricing", "cheap", "discount", "deal", "order",
		"purchase", "shop", "sale", "cost", "subscription",
	}
	informationalSignals = []string{
		"how", "what", "why", "guide", "tutorial", "learn", "tips",
		"example", "definition", "meaning",
	}
	navigationalSignals = []string{
		"login", "log in", "sign in", "signup", "sign up", "contact",
		"about us", "about", "homepage", "home page", "account",
		"support", "download",
	}
)
