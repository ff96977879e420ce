package retrieval

import "strings"

// Stop words to filter out when checking for verbatim matches.
// German carries the customer-facing load; the English tail covers
// mixed-language product queries.
var stopWords = map[string]bool{
	"der": true, "die": true, "das": true, "ein": true, "eine": true,
	"und": true, "oder": true, "ist": true, "sind": true, "war": true,
	"ich": true, "sie": true, "wir": true, "mein": true, "meine": true,
	"für": true, "von": true, "mit": true, "auf": true, "bei": true,
	"zu": true, "im": true, "in": true, "an": true, "wo": true,
	"wie": true, "was": true, "wann": true, "nicht": true, "bitte": true,
	"the": true, "a": true, "is": true, "are": true,
	"to": true, "of": true, "and": true, "for": true, "with": true,
}

// Normalize canonicalizes a query: trims, collapses whitespace, and
// lowercases. Cache fingerprints are computed over this form, so queries
// differing only in spacing or casing share an entry.
func Normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords checks if all query words (after filtering) appear in the document
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}
