// Package textproc holds the pure text functions used to enrich articles:
// cleaning, tokenizing, summaries, keywords, sentiment, readability and
// naive language and entity detection. Nothing here does I/O.
package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	urlRe      = regexp.MustCompile(`https?://\S+`)
	emailRe    = regexp.MustCompile(`\S+@\S+`)
	dotsRe     = regexp.MustCompile(`\.{2,}`)
	bangsRe    = regexp.MustCompile(`!{2,}`)
	questionRe = regexp.MustCompile(`\?{2,}`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

const minSentenceLength = 10

// Clean strips URLs and email addresses, collapses repeated ".", "!" and "?"
// and collapses whitespace. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = urlRe.ReplaceAllString(text, " ")
	text = emailRe.ReplaceAllString(text, " ")
	text = dotsRe.ReplaceAllString(text, ".")
	text = bangsRe.ReplaceAllString(text, "!")
	text = questionRe.ReplaceAllString(text, "?")
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize lowercases text, strips ASCII punctuation and returns the
// whitespace separated words that are not stop words and are longer than
// two characters.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = stripPunctuation(strings.ToLower(text))

	var tokens []string
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// SplitSentences splits on runs of sentence terminators and drops fragments
// shorter than ten characters.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var sentences []string
	for _, part := range sentenceRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > minSentenceLength {
			sentences = append(sentences, part)
		}
	}
	return sentences
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// stripPunctuation removes every ASCII punctuation character.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isASCIIPunct(r) {
			return -1
		}
		return r
	}, s)
}

func trimPunctuation(s string) string {
	return strings.TrimFunc(s, isASCIIPunct)
}

func isASCIIPunct(r rune) bool {
	return (r >= '!' && r <= '/') || (r >= ':' && r <= '@') || (r >= '[' && r <= '`') || (r >= '{' && r <= '~')
}

// truncate cuts s to max runes and appends "..." when it was longer.
func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// Truncate is the exported form of the summary truncation rule.
func Truncate(s string, max int) string {
	return truncate(s, max)
}
