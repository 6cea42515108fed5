package textproc

// Analysis bundles every derived metric for one article.
type Analysis struct {
	Summary     string      `json:"summary"`
	WordCount   int         `json:"word_count"`
	Sentiment   float64     `json:"sentiment_score"`
	Keywords    []string    `json:"keywords"`
	Readability Readability `json:"readability"`
	Language    Language    `json:"language"`
	Entities    Entities    `json:"entities"`
}

const analysisKeywords = 5

// Analyze computes the article metrics. Sentiment is scored over title and
// content together; language falls back to the title when content is empty.
func Analyze(title, content string) Analysis {
	a := Analysis{
		WordCount: WordCount(content),
		Sentiment: Sentiment(title + " " + content),
	}

	if content != "" {
		a.Summary = Summarize(content, DefaultSummarySentences, DefaultSummaryLength)
		for _, kw := range Keywords(content, analysisKeywords) {
			a.Keywords = append(a.Keywords, kw.Token)
		}
		a.Readability = ReadabilityOf(content)
		a.Language = DetectLanguage(content)
		a.Entities = ExtractEntities(content)
	} else {
		a.Language = DetectLanguage(title)
	}
	return a
}
