package textproc

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// DuplicatePair links a repeated text to the first index that produced it.
type DuplicatePair struct {
	First     int `json:"first"`
	Duplicate int `json:"duplicate"`
}

// ContentHash returns the hex MD5 of the cleaned, lowercased text, or "" for
// empty input.
func ContentHash(text string) string {
	normalized := Clean(strings.ToLower(text))
	if normalized == "" {
		return ""
	}
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// FindDuplicates scans texts once and pairs every repeat of a content hash
// with the first index that produced it. Empty texts are ignored.
func FindDuplicates(texts []string) []DuplicatePair {
	first := make(map[string]int, len(texts))
	var pairs []DuplicatePair
	for i, text := range texts {
		h := ContentHash(text)
		if h == "" {
			continue
		}
		if idx, ok := first[h]; ok {
			pairs = append(pairs, DuplicatePair{First: idx, Duplicate: i})
			continue
		}
		first[h] = i
	}
	return pairs
}

// ArticleID is the deterministic article identifier: hex MD5 of
// title + "_" + url.
func ArticleID(title, url string) string {
	sum := md5.Sum([]byte(title + "_" + url))
	return hex.EncodeToString(sum[:])
}
