package textproc

import (
	"strings"
	"unicode"
)

// Language is a coarse language guess.
type Language string

const (
	English Language = "english"
	Spanish Language = "spanish"
	French  Language = "french"
	Unknown Language = "unknown"
)

// DetectLanguage counts indicator words per language and returns the
// language with the most hits. Ties favor english, then spanish, then
// french; no hits at all yields Unknown.
func DetectLanguage(text string) Language {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return Unknown
	}

	seen := make(map[string]int, len(words))
	for _, w := range words {
		seen[w]++
	}

	best, bestCount := Unknown, 0
	for _, li := range languageIndicators {
		count := 0
		for _, w := range uniqueWords(li.words) {
			count += seen[w]
		}
		if count > bestCount {
			best, bestCount = li.lang, count
		}
	}
	return best
}

func uniqueWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := words[:0:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
