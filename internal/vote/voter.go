// Package vote scores candidate merchant names and picks a winner.
package vote

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/halcyonfi/namewise/internal/model"
)

// artifactTokens are leftover statement fragments that disqualify a string
// from looking like a real merchant name.
var artifactTokens = []string{"PURCHASE", "RECUR", "POS", "ACH", "WEB", "PMTS"}

// locationTokens betray a candidate that still carries place information.
var locationTokens = []string{
	" nd", " mn", " ca", " wa", " va", " sd", " ny",
	"fargo", "moorhead", "alexandria", "saint ", "west ", "east ", "north ", "south ",
}

// ledgerShortCircuitScore is assigned to a HIGH-tier ledger candidate so it
// wins over any ensemble output.
const ledgerShortCircuitScore = 1000.0

// Quality computes the deterministic quality score for a candidate string.
// The scale follows the confidence model used for ensemble weighting: base
// 50 adjusted for length, casing, word shape, and artifact tokens.
func Quality(text string) float64 {
	score := 50.0

	switch n := utf8.RuneCountInString(text); {
	case n >= 3 && n <= 30:
		score += 20
	case n > 30:
		score -= 10
	default:
		score -= 20
	}

	var hasUpper, hasLower bool
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		score += 10
	} else {
		score -= 10
	}

	if strings.Contains(strings.TrimSpace(text), " ") {
		score += 10
	}

	upper := strings.ToUpper(text)
	clean := true
	for _, tok := range artifactTokens {
		if strings.Contains(upper, tok) {
			clean = false
			break
		}
	}
	if clean {
		score += 15
	} else {
		score -= 20
	}

	lower := strings.ToLower(text)
	for _, tok := range locationTokens {
		if strings.Contains(lower, tok) {
			score -= 50
			break
		}
	}

	switch words := len(strings.Fields(text)); {
	case words >= 2 && words <= 3:
		score += 10
	case words > 5:
		score -= 10
	}

	return score
}

// Pick selects the winning candidate. A HIGH-tier ledger entry wins
// unconditionally, guaranteeing stability for well-established merchants
// regardless of ensemble noise. Otherwise the highest combined score wins,
// with fully deterministic tie-breaking. The second return is false when no
// candidate exists at all.
func Pick(candidates []model.Candidate, entry *model.LedgerEntry) (model.Candidate, bool) {
	if entry != nil && entry.Tier() == model.TierHigh {
		return model.Candidate{
			Text:   entry.CanonicalName,
			Source: model.SourceLedger,
			Score:  ledgerShortCircuitScore,
		}, true
	}

	pool := make([]model.Candidate, 0, len(candidates)+1)
	if entry != nil {
		pool = append(pool, model.Candidate{
			Text:   entry.CanonicalName,
			Source: model.SourceLedger,
		})
	}
	pool = append(pool, candidates...)

	if len(pool) == 0 {
		return model.Candidate{}, false
	}

	best := pool[0]
	bestScore := combined(pool[0])
	for _, c := range pool[1:] {
		score := combined(c)
		switch {
		case score > bestScore:
			best, bestScore = c, score
		case score == bestScore && beats(c, best):
			best = c
		}
	}

	best.Score = bestScore
	return best, true
}

// combined adds the producer-assigned prior (ensemble role confidence) to
// the deterministic quality score.
func combined(c model.Candidate) float64 {
	return Quality(c.Text) + c.Score
}

// beats resolves score ties: source precedence, then shorter text, then
// lexical order.
func beats(a, b model.Candidate) bool {
	if a.Source != b.Source {
		return a.Source.Beats(b.Source)
	}
	if len(a.Text) != len(b.Text) {
		return len(a.Text) < len(b.Text)
	}
	return a.Text < b.Text
}
