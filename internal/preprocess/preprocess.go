// Package preprocess applies deterministic processor-pattern rules to raw
// merchant descriptions before any external call is made.
package preprocess

import (
	"regexp"
	"strings"
)

// Kind classifies what a preprocessor rule decided about a description.
type Kind string

const (
	// KindResolved means the rule fully determined the canonical name; no
	// further pipeline stages are needed.
	KindResolved Kind = "resolved"
	// KindExtracted means a pattern captured the likely merchant substring;
	// downstream stages still run with it as one candidate.
	KindExtracted Kind = "extracted"
	// KindStripped means known noise was removed but the remainder still
	// needs cleaning.
	KindStripped Kind = "stripped"
	// KindUnchanged means no rule matched.
	KindUnchanged Kind = "unchanged"
)

// Outcome is the result of preprocessing one description.
type Outcome struct {
	Kind Kind
	Text string
}

type action int

const (
	actionResolve action = iota
	actionExtract
	actionStrip
)

// rule is one entry in the ordered processor-pattern table.
type rule struct {
	match   *regexp.Regexp
	payload *regexp.Regexp // capture for extract, removal for strip
	name    string
	result  string // canonical name for resolve
	action  action
}

// Preprocessor evaluates an ordered rule table; the first matching rule wins.
type Preprocessor struct {
	rules []rule
}

// New creates a preprocessor with the default processor-pattern table.
func New() *Preprocessor {
	return &Preprocessor{rules: defaultRules()}
}

func defaultRules() []rule {
	return []rule{
		{
			name:   "atm-withdrawal",
			match:  regexp.MustCompile(`^\$[\d,]+\.?\d*\s+AT\s+\d{1,2}:\d{2}`),
			action: actionResolve,
			result: "ATM Withdrawal",
		},
		{
			name:   "squarespace",
			match:  regexp.MustCompile(`(?i)^SQSP\s*\*`),
			action: actionResolve,
			result: "Squarespace",
		},
		{
			// A personal name follows the prefix, not a merchant.
			name:   "cash-app",
			match:  regexp.MustCompile(`(?i)^CASH\s*APP\s*\*`),
			action: actionResolve,
			result: "Cash App",
		},
		{
			// Location codes follow the prefix.
			name:   "bp-fuel",
			match:  regexp.MustCompile(`^BP[#\d]`),
			action: actionResolve,
			result: "BP",
		},
		{
			name:    "square",
			match:   regexp.MustCompile(`(?i)^SQ\s*\*`),
			action:  actionExtract,
			payload: regexp.MustCompile(`(?i)^SQ\s*\*\s*(.+)$`),
		},
		{
			name:    "worldline",
			match:   regexp.MustCompile(`(?i)^WL\s*\*`),
			action:  actionStrip,
			payload: regexp.MustCompile(`(?i)^WL\s*\*\s*`),
		},
		{
			name:    "terminal-prefix",
			match:   regexp.MustCompile(`(?i)^(?:TST|PAW)\s*[-*]\s*`),
			action:  actionStrip,
			payload: regexp.MustCompile(`(?i)^(?:TST|PAW)\s*[-*]\s*`),
		},
		{
			name:    "transaction-type-prefix",
			match:   regexp.MustCompile(`(?i)^(?:RECUR\.?\s*PURCHASE\.?\s*|POS\s+(?:PURCHASE\s+)?AT\s+|PURCHASE\s+AT\s+)`),
			action:  actionStrip,
			payload: regexp.MustCompile(`(?i)^(?:RECUR\.?\s*PURCHASE\.?\s*|POS\s+(?:PURCHASE\s+)?AT\s+|PURCHASE\s+AT\s+)`),
		},
	}
}

// Apply evaluates the rule table against a raw description. Rules are pure
// string transforms: Apply is total over arbitrary input and never errors.
func (p *Preprocessor) Apply(description string) Outcome {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return Outcome{Kind: KindUnchanged, Text: description}
	}

	for _, r := range p.rules {
		if !r.match.MatchString(trimmed) {
			continue
		}

		switch r.action {
		case actionResolve:
			return Outcome{Kind: KindResolved, Text: r.result}

		case actionExtract:
			m := r.payload.FindStringSubmatch(trimmed)
			if len(m) < 2 {
				break
			}
			text := Scrub(m[1])
			if text == "" {
				break
			}
			return Outcome{Kind: KindExtracted, Text: text}

		case actionStrip:
			text := Scrub(r.payload.ReplaceAllString(trimmed, ""))
			if text == "" {
				break
			}
			return Outcome{Kind: KindStripped, Text: text}
		}
	}

	// No prefix rule matched; fall back to generic noise removal.
	if scrubbed := Scrub(trimmed); scrubbed != "" && scrubbed != trimmed {
		return Outcome{Kind: KindStripped, Text: scrubbed}
	}

	return Outcome{Kind: KindUnchanged, Text: trimmed}
}

var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bXX+\d{4}\b`),               // card masks
	regexp.MustCompile(`\s*#\s*\d+`),                 // store numbers
	regexp.MustCompile(`\s*\d{3}-\d{3}-\d{4}`),       // phone numbers
	regexp.MustCompile(`\s+\d{3}-\d{7}\b`),           // phone numbers, dense form
	regexp.MustCompile(`%[^%]+%`),                    // percent-fenced codes
	regexp.MustCompile(`\s+[A-Z0-9]{10,}\b`),         // long reference codes
	regexp.MustCompile(`\s+\d{8,}\b`),                // payment reference numbers
	regexp.MustCompile(`(?i)\s+WEB[ _](?:PMTS?|PAY)\s+\S+`), // web payment codes
	regexp.MustCompile(`\s+[A-Z][a-z]+\s+[A-Z]{2}$`), // trailing City ST
	regexp.MustCompile(`\s+[A-Z]{2}\s*\d*$`),         // trailing state code
	regexp.MustCompile(`\s+\d{4,5}$`),                // trailing zip
}

// Scrub removes generic statement noise from a description. It is pure and
// idempotent; callers rely on it never panicking on arbitrary input.
func Scrub(text string) string {
	for _, re := range scrubPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.Join(strings.Fields(text), " ")
}
