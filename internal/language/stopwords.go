package language

// Stopwords returns the stopword set for an ISO 639-1 language code.
// Unknown languages fall back to the English set so filtering never
// disappears entirely.
func Stopwords(lang string) map[string]struct{} {
	if set, ok := stopwordSets[lang]; ok {
		return set
	}
	return stopwordSets["en"]
}

func makeSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var stopwordSets = map[string]map[string]struct{}{
	"en": makeSet(
		"a", "about", "above", "after", "again", "against", "all", "am",
		"an", "and", "any", "are", "as", "at", "be", "because", "been",
		"before", "being", "below", "between", "both", "but", "by", "can",
		"could", "did", "do", "does", "doing", "down", "during", "each",
		"few", "for", "from", "further", "had", "has", "have", "having",
		"he", "her", "here", "hers", "herself", "him", "himself", "his",
		"how", "i", "if", "in", "into", "is", "it", "its", "itself",
		"just", "me", "more", "most", "my", "myself", "no", "nor", "not",
		"now", "of", "off", "on", "once", "only", "or", "other", "our",
		"ours", "ourselves", "out", "over", "own", "same", "she", "should",
		"so", "some", "such", "than", "that", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this",
		"those", "through", "to", "too", "under", "until", "up", "very",
		"was", "we", "were", "what", "when", "where", "which", "while",
		"who", "whom", "why", "will", "with", "would", "you", "your",
		"yours", "yourself", "yourselves",
	),
	"bg": makeSet(
		"а", "в", "във", "и", "или", "като", "към", "на", "не", "но",
		"от", "по", "при", "с", "са", "се", "си", "това", "той", "тя",
		"че", "за", "да", "е", "ще", "го", "ни", "ви", "те", "до",
	),
	"de": makeSet(
		"aber", "als", "auch", "auf", "aus", "bei", "das", "dass", "dem",
		"den", "der", "des", "die", "ein", "eine", "einen", "einer", "es",
		"für", "hat", "ich", "im", "in", "ist", "mit", "nach", "nicht",
		"noch", "oder", "sich", "sie", "sind", "so", "über", "und", "von",
		"war", "was", "wie", "wir", "zu", "zum", "zur",
	),
	"es": makeSet(
		"a", "al", "como", "con", "de", "del", "el", "ella", "en", "es",
		"esta", "este", "la", "las", "lo", "los", "más", "no", "o", "para",
		"pero", "por", "que", "se", "si", "sin", "son", "su", "sus", "un",
		"una", "y", "ya",
	),
	"fr": makeSet(
		"à", "au", "aux", "avec", "ce", "ces", "dans", "de", "des", "du",
		"elle", "en", "et", "est", "il", "ils", "la", "le", "les", "mais",
		"ne", "ou", "par", "pas", "pour", "que", "qui", "se", "ses", "son",
		"sont", "sur", "un", "une",
	),
	"ru": makeSet(
		"а", "в", "во", "для", "до", "его", "ее", "если", "же", "за", "и",
		"из", "или", "их", "к", "как", "который", "на", "не", "но", "о",
		"он", "она", "они", "от", "по", "при", "с", "со", "так", "также",
		"то", "у", "что", "это", "я",
	),
}
