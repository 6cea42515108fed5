package textproc

import (
	"regexp"
)

const maxEntities = 10

var (
	personRe   = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
	orgRe      = regexp.MustCompile(`\b[A-Z][a-zA-Z ]+ (?:Inc|Corp|Ltd|LLC|Company|Corporation|Organization|Agency)\b`)
	locationRe = regexp.MustCompile(`\b[A-Z][a-zA-Z ]+ (?:City|State|Country|Province|County|District|Street|Avenue|Road|Boulevard)\b`)
)

// Entities are capitalized phrases that look like names. This is a regex
// heuristic, not entity recognition.
type Entities struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// ExtractEntities returns up to ten distinct candidates of each kind in order
// of first appearance.
func ExtractEntities(text string) Entities {
	var ents Entities
	if text == "" {
		return ents
	}

	var persons []string
	for _, m := range personRe.FindAllString(text, -1) {
		if _, skip := entityFalsePositives[m]; skip {
			continue
		}
		persons = append(persons, m)
	}

	ents.Persons = distinct(persons, maxEntities)
	ents.Organizations = distinct(orgRe.FindAllString(text, -1), maxEntities)
	ents.Locations = distinct(locationRe.FindAllString(text, -1), maxEntities)
	return ents
}

func distinct(values []string, max int) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}
