package similarity

import (
	"regexp"
	"strings"
)

var entitySuffixes = regexp.MustCompile(
	`(?i)\s*,?\s*(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|L\.?L\.?P\.?|` +
		`PLLC|P\.?L\.?L\.?C\.?|P\.?C\.?|DBA|D/B/A)\s*\.?\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// searchTermAllowed matches the characters kept when sanitizing a free-text
// name for a remote "contains" search: word characters, spaces, dots, hyphens.
var searchTermAllowed = regexp.MustCompile(`[^\w\s.\-]`)

// NormalizeName standardizes an organization name for comparison by
// uppercasing, stripping common legal suffixes, and collapsing whitespace.
func NormalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = entitySuffixes.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// SanitizeSearchTerm strips characters that directory search endpoints reject
// from a free-text query, keeping word characters, spaces, dots, and hyphens.
func SanitizeSearchTerm(term string) string {
	t := searchTermAllowed.ReplaceAllString(term, "")
	t = multiSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}
