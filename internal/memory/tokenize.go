package memory

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords are common English function words excluded from search
// keywords. A query made entirely of these yields zero keywords and an
// empty search result instead of matching everything.
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "am": true,
	"an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "because": true, "been": true, "before": true,
	"being": true, "but": true, "by": true, "can": true, "could": true,
	"did": true, "do": true, "does": true, "each": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "him": true, "his": true,
	"how": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "just": true, "me": true, "more": true,
	"most": true, "my": true, "no": true, "nor": true, "not": true,
	"now": true, "of": true, "off": true, "on": true, "or": true,
	"other": true, "our": true, "out": true, "over": true, "she": true,
	"should": true, "so": true, "some": true, "such": true, "than": true,
	"that": true, "the": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true,
	"through": true, "to": true, "too": true, "up": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "whom": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// tokenize splits free text into search keywords: lowercase alphanumeric
// runs of at least two characters, stop words removed, duplicates dropped
// with first-occurrence order preserved.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var keywords []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

// buildFTSQuery quotes each keyword and joins with OR — broad recall, the
// rank sorts out precision. `pie cake` → `"pie" OR "cake"`
func buildFTSQuery(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = `"` + k + `"`
	}
	return strings.Join(quoted, " OR ")
}

// keywordHits counts keywords appearing as substrings of hay. hay must
// already be lowercased; keywords always are.
func keywordHits(hay string, keywords []string) int {
	hits := 0
	for _, k := range keywords {
		if strings.Contains(hay, k) {
			hits++
		}
	}
	return hits
}
