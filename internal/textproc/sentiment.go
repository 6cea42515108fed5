package textproc

// Sentiment scores text in [-1, 1] as (positive - negative) / (positive +
// negative) lexicon hits. Text without lexicon words scores 0.
func Sentiment(text string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var pos, neg int
	for _, tok := range tokens {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}

	score := float64(pos-neg) / float64(pos+neg)
	return clamp(score, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
