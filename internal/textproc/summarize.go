package textproc

import (
	"sort"
	"strings"
)

// Summary defaults.
const (
	DefaultSummarySentences = 3
	DefaultSummaryLength    = 300
	positionWeight          = 10.0
	shortSentenceTokens     = 5
)

// Keyword is a token with its relative frequency in a text.
type Keyword struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// WordFrequency maps each token to count/total over Tokenize(text). The
// returned order slice lists tokens by first appearance.
func WordFrequency(text string) (map[string]float64, []string) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return map[string]float64{}, nil
	}

	counts := make(map[string]int, len(tokens))
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	total := float64(len(tokens))
	freq := make(map[string]float64, len(counts))
	for tok, c := range counts {
		freq[tok] = float64(c) / total
	}
	return freq, order
}

// Keywords ranks tokens by relative frequency, highest first. Ties keep
// first-appearance order.
func Keywords(text string, max int) []Keyword {
	freq, order := WordFrequency(text)
	if len(order) == 0 {
		return nil
	}

	keywords := make([]Keyword, len(order))
	for i, tok := range order {
		keywords[i] = Keyword{Token: tok, Score: freq[tok]}
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Score > keywords[j].Score
	})

	if max > 0 && len(keywords) > max {
		keywords = keywords[:max]
	}
	return keywords
}

// Summarize picks up to maxSentences sentences by token frequency and
// position, joins them in document order and truncates to maxLength runes.
func Summarize(text string, maxSentences, maxLength int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultSummarySentences
	}
	if maxLength <= 0 {
		maxLength = DefaultSummaryLength
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) <= maxSentences {
		return truncate(strings.Join(sentences, " "), maxLength)
	}

	freq, _ := WordFrequency(text)
	n := float64(len(sentences))

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sentence := range sentences {
		tokens := Tokenize(sentence)
		var score float64
		for _, tok := range tokens {
			score += freq[tok]
		}
		score += (n - float64(i)) / n * positionWeight
		if len(tokens) < shortSentenceTokens {
			score *= 0.5
		}
		scores[i] = scored{index: i, score: score}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	picked := make([]int, 0, maxSentences)
	for _, s := range scores[:maxSentences] {
		picked = append(picked, s.index)
	}
	sort.Ints(picked)

	parts := make([]string, len(picked))
	for i, idx := range picked {
		parts[i] = sentences[idx]
	}
	return truncate(strings.Join(parts, " "), maxLength)
}
