package classify

import "strings"

// stopwords excluded from tokenized descriptions. Classification terms are
// noun-heavy; these carry no routing signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "from": true,
	"in": true, "of": true, "on": true, "or": true, "other": true,
	"the": true, "to": true, "with": true, "not": true, "than": true,
}

// tokenize lowercases a description and splits it into significant terms.
// Terms shorter than three characters are dropped along with stopwords.
func tokenize(description string) []string {
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if len(field) < 3 || stopwords[field] || seen[field] {
			continue
		}
		seen[field] = true
		terms = append(terms, field)
	}
	return terms
}

// termOverlap returns the fraction of query terms present in the candidate
// text. Returns 0 when the query has no terms.
func termOverlap(queryTerms []string, candidate string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	lower := strings.ToLower(candidate)
	matched := 0
	for _, term := range queryTerms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms))
}
