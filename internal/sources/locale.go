package sources

import "strings"

var (
	englishStopWords = stopWords("the", "and", "of", "in", "to", "a", "an", "for", "with", "on", "at", "by", "from")
	spanishStopWords = stopWords("el", "la", "los", "las", "de", "del", "en", "y", "un", "una", "para", "con", "por")
)

func stopWords(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsEnglishTitle reports whether title contains an English stop word.
func IsEnglishTitle(title string) bool {
	return containsAny(title, englishStopWords)
}

// IsSpanishTitle reports whether title contains a Spanish stop word.
func IsSpanishTitle(title string) bool {
	return containsAny(title, spanishStopWords)
}

func containsAny(title string, words map[string]struct{}) bool {
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}
