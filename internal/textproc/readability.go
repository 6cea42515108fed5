package textproc

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Readability holds the heuristic readability metrics of a text.
type Readability struct {
	FleschScore       float64 `json:"flesch_score"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`
}

// ReadabilityOf estimates a Flesch reading-ease score using half the mean
// word length as the syllable count. Values are rounded to two decimals.
func ReadabilityOf(text string) Readability {
	sentences := SplitSentences(text)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return Readability{}
	}

	avgSentence := float64(len(words)) / float64(len(sentences))

	var letters int
	for _, w := range words {
		letters += utf8.RuneCountInString(trimPunctuation(w))
	}
	avgWord := float64(letters) / float64(len(words))

	syllables := avgWord / 2
	flesch := 206.835 - 1.015*avgSentence - 84.6*syllables

	return Readability{
		FleschScore:       round2(clamp(flesch, 0, 100)),
		AvgSentenceLength: round2(avgSentence),
		AvgWordLength:     round2(avgWord),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
