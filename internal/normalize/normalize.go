// Package normalize applies the deterministic formatting pass that turns a
// winning candidate into the final canonical merchant name.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// boilerplate matches explanation fragments generation models tend to wrap
// around the actual name.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(no location(?: information)?[^)]*\)`),
	regexp.MustCompile(`(?i)no location information provided.*`),
	regexp.MustCompile(`(?i)^(?:sure|okay|certainly)[,!.]\s*`),
	regexp.MustCompile(`(?i)^(?:yes,\s*)?the (?:transaction|business|merchant) name is:?\s*`),
	regexp.MustCompile(`(?i)a fun (?:one|transaction)!`),
	regexp.MustCompile(`(?i)the transaction details:`),
}

// acronyms stay upper case even inside an otherwise title-cased name.
var acronyms = map[string]struct{}{
	"ATM": {}, "POS": {}, "ACH": {}, "USA": {},
	"LLC": {}, "INC": {}, "BP": {}, "KFC": {},
	"IKEA": {}, "BBQ": {}, "YMCA": {}, "UPS": {},
}

// trailingQualifiers are generic suffix words dropped when they are not the
// whole name.
var trailingQualifiers = map[string]struct{}{
	"Purchase": {}, "Supercenter": {}, "Store": {}, "Location": {},
	"Branch": {}, "Retailer": {}, "LLC": {}, "Inc": {},
	"Corporation": {}, "Company": {},
}

var (
	edgePunct    = regexp.MustCompile(`^[,.\s"']+|[,.\s"']+$`)
	camelSplit   = regexp.MustCompile(`([a-z])([A-Z])`)
	titleCaser   = cases.Title(language.English)
	hasInnerCaps = regexp.MustCompile(`.[A-Z]`)
)

// Clean runs the ordered, idempotent normalization pipeline. It is pure and
// total: Clean(Clean(s)) == Clean(s) for every s.
func Clean(text string) string {
	for _, re := range boilerplate {
		text = re.ReplaceAllString(text, "")
	}
	text = edgePunct.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	// Dropping a qualifier can expose a run-on token, and splitting a run-on
	// can expose a leading article or a new trailing qualifier, so the word
	// transforms iterate until the text stops changing.
	for {
		next := retitle(text)
		next = dropLeadingArticle(next)
		next = splitRunOn(next)
		next = dropTrailingQualifiers(next)
		if next == text {
			break
		}
		text = next
	}

	return strings.TrimSpace(text)
}

// retitle converts full-uppercase words to title case, keeping the acronym
// allowlist and short codes as they are.
func retitle(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if word != strings.ToUpper(word) || !strings.ContainsFunc(word, isLetter) {
			continue
		}
		if _, ok := acronyms[word]; ok {
			continue
		}
		if len(word) <= 2 {
			continue
		}
		words[i] = titleCaser.String(strings.ToLower(word))
	}
	return strings.Join(words, " ")
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// dropLeadingArticle removes a leading definite article unless it is the
// whole name.
func dropLeadingArticle(text string) string {
	rest, ok := strings.CutPrefix(text, "The ")
	if ok && rest != "" {
		return rest
	}
	return text
}

// splitRunOn inserts a space at a lowercase-to-uppercase boundary inside a
// single run-on token, turning "CowboyJacks" into "Cowboy Jacks".
func splitRunOn(text string) string {
	if strings.Contains(text, " ") || !hasInnerCaps.MatchString(text) {
		return text
	}
	return camelSplit.ReplaceAllString(text, "$1 $2")
}

// dropTrailingQualifiers peels generic suffix words while more than one word
// remains.
func dropTrailingQualifiers(text string) string {
	words := strings.Fields(text)
	for len(words) > 1 {
		if _, ok := trailingQualifiers[words[len(words)-1]]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
