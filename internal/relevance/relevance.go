// Package relevance decides whether a marketplace offer title refers to
// the same product as a known reference title, using keyword overlap.
package relevance

import (
	"regexp"
	"strings"
)

// DefaultMinMatches is the recommended overlap threshold.
const DefaultMinMatches = 2

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// stopWords covers articles, pronouns, auxiliary verbs, and the marketing
// noise that marketplace titles are padded with.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"this": true, "that": true, "you": true, "your": true, "our": true,
	"new": true, "free": true, "sale": true, "best": true, "top": true,
	"hot": true, "deal": true, "offer": true, "cheap": true, "original": true,
	"genuine": true, "authentic": true, "brand": true, "quality": true,
	"shipping": true, "fast": true, "pack": true, "set": true, "lot": true,
}

// Filter accepts or rejects offer titles against a reference title.
type Filter struct {
	minMatches int
}

// NewFilter creates a Filter requiring at least minMatches overlapping
// keywords. Values below 1 fall back to DefaultMinMatches.
func NewFilter(minMatches int) *Filter {
	if minMatches < 1 {
		minMatches = DefaultMinMatches
	}
	return &Filter{minMatches: minMatches}
}

// MinMatches returns the configured overlap threshold.
func (f *Filter) MinMatches() int {
	return f.minMatches
}

// IsRelevant reports whether offerTitle plausibly names the same product
// as referenceTitle. An empty reference title bypasses the filter and
// accepts everything. If either title yields no usable tokens, the offer
// is rejected.
func (f *Filter) IsRelevant(offerTitle, referenceTitle string) bool {
	if referenceTitle == "" {
		return true
	}

	offerTokens := Tokenize(offerTitle)
	refTokens := Tokenize(referenceTitle)

	if len(offerTokens) == 0 || len(refTokens) == 0 {
		return false
	}

	matches := 0
	for token := range refTokens {
		if matchesAny(token, offerTokens) {
			matches++
			if matches >= f.minMatches {
				return true
			}
		}
	}

	return false
}

// Tokenize normalizes a title into a deduplicated keyword set: lowercase,
// punctuation stripped, stop words removed, tokens shorter than 3
// characters and purely numeric tokens dropped.
func Tokenize(s string) map[string]bool {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	tokens := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if len(word) < 3 {
			continue
		}
		if stopWords[word] {
			continue
		}
		if isNumeric(word) {
			continue
		}
		tokens[word] = true
	}

	return tokens
}

// matchesAny reports whether token matches any member of set. Two tokens
// match if equal, or if both are at least 4 characters and one contains
// the other (covers plural and variant forms like earbud/earbuds).
func matchesAny(token string, set map[string]bool) bool {
	if set[token] {
		return true
	}
	if len(token) < 4 {
		return false
	}
	for other := range set {
		if len(other) < 4 {
			continue
		}
		if strings.Contains(token, other) || strings.Contains(other, token) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
