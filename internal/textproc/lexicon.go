package textproc

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var stopWords = wordSet(
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with", "this", "but", "they", "have",
	"had", "what", "said", "each", "which", "she", "do", "how", "their",
	"if", "up", "out", "many", "then", "them", "these", "so", "some",
	"her", "would", "make", "like", "into", "him", "time", "two", "more",
	"go", "no", "way", "could", "my", "than", "first", "been", "call",
	"who", "now", "find", "long", "down", "day", "did", "get", "come",
	"made", "may", "part",
)

var positiveWords = wordSet(
	"good", "great", "excellent", "amazing", "wonderful", "fantastic",
	"positive", "success", "win", "achieve", "breakthrough", "progress",
	"growth", "improve", "benefit", "gain", "rise", "boost", "strong",
	"effective", "efficient", "innovative", "outstanding", "remarkable",
	"impressive", "brilliant", "superb", "magnificent", "exceptional",
	"victory", "triumph", "advance", "develop", "enhance", "upgrade",
	"optimize", "expand", "flourish", "thrive", "prosper", "succeed",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "negative", "fail", "failure",
	"crisis", "problem", "issue", "concern", "worry", "decline", "fall",
	"drop", "loss", "damage", "threat", "risk", "danger", "weak", "poor",
	"disappointing", "concerning", "alarming", "devastating", "tragic",
	"disaster", "collapse", "crash", "plunge", "suffer", "struggle",
	"conflict", "war", "attack", "violence", "death", "destroy",
	"eliminate", "reduce", "cut", "slash", "decrease",
)

// languageIndicators is ordered by tie-break preference.
var languageIndicators = []struct {
	lang  Language
	words []string
}{
	{English, []string{"the", "and", "is", "in", "to", "of", "a", "that", "it", "with"}},
	{Spanish, []string{"el", "la", "de", "que", "y", "en", "un", "es", "se", "no"}},
	{French, []string{"le", "de", "et", "à", "un", "il", "être", "et", "en", "avoir"}},
}

var entityFalsePositives = wordSet(
	"United States", "New York", "Los Angeles", "San Francisco",
	"United Kingdom", "European Union", "Middle East",
)
