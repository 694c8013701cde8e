package ledger

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Exemplar is a previously resolved canonical name offered as context to the
// ensemble, paired with how often it has been seen.
type Exemplar struct {
	CanonicalName string
	Occurrences   int
}

// minSimilarity bounds how dissimilar an entry may be and still count as an
// exemplar.
const minSimilarity = 0.5

// FindExemplars returns up to k canonical names most similar to rawKey,
// ordered by similarity, then higher occurrence count, then lexically. The
// same inputs always produce the same output in the same order. An empty
// ledger yields an empty slice.
func (l *Ledger) FindExemplars(rawKey string, k int) []Exemplar {
	if k <= 0 {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}

	target := squash(rawKey)

	type scored struct {
		exemplar   Exemplar
		similarity float64
	}
	var matches []scored

	for key, entry := range l.entries {
		sim := similarity(target, squash(key))
		if sim < minSimilarity {
			continue
		}
		matches = append(matches, scored{
			exemplar:   Exemplar{CanonicalName: entry.CanonicalName, Occurrences: entry.Occurrences},
			similarity: sim,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		if matches[i].exemplar.Occurrences != matches[j].exemplar.Occurrences {
			return matches[i].exemplar.Occurrences > matches[j].exemplar.Occurrences
		}
		return matches[i].exemplar.CanonicalName < matches[j].exemplar.CanonicalName
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	exemplars := make([]Exemplar, len(matches))
	for i, m := range matches {
		exemplars[i] = m.exemplar
	}
	return exemplars
}

// similarity blends edit distance with substring containment, which catches
// truncated statement captures like "CASHWISE #12" against "CASHWISE #1234
// WEST FARGO ND".
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	sim := levenshtein.Similarity(a, b, nil)
	if len(a) >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) && sim < 0.9 {
		sim = 0.9
	}
	return sim
}

// squash strips separators so spacing and punctuation differences do not
// defeat the comparison.
func squash(key string) string {
	return strings.NewReplacer(" ", "", "-", "", "&", "", "*", "").Replace(strings.ToUpper(key))
}
