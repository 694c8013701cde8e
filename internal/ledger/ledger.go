// Package ledger maintains the historical index of resolved merchant names.
//
// The ledger is rebuilt from source-of-truth historical records on every run
// rather than loaded from a persisted cache, so it can never drift from the
// corrections it was derived from.
package ledger

import (
	"log/slog"
	"sync"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"
)

// DisplayPolicy controls which canonical name wins when prior periods
// disagree for the same raw key. Occurrence counts aggregate across all
// periods regardless of the policy.
type DisplayPolicy string

const (
	// MostRecentWins keeps the canonical name from the latest period.
	MostRecentWins DisplayPolicy = "most-recent"
	// FirstSeenWins keeps the canonical name from the earliest period.
	FirstSeenWins DisplayPolicy = "first-seen"
)

// Ledger is the frequency-tracked mapping of raw keys to canonical names.
// Reads are safe from any goroutine; writes go through Observe and are
// expected to come from a single writer.
type Ledger struct {
	entries    map[string]*model.LedgerEntry
	lastPeriod map[string]string
	policy     DisplayPolicy
	defects    int
	mu         sync.RWMutex
}

// Build constructs a ledger from historical corrected records. Records are
// expected in period order. Malformed records are skipped and counted, never
// fatal.
func Build(history []service.HistoryRecord, policy DisplayPolicy) *Ledger {
	if policy != FirstSeenWins {
		policy = MostRecentWins
	}

	l := &Ledger{
		entries:    make(map[string]*model.LedgerEntry, len(history)),
		lastPeriod: make(map[string]string, len(history)),
		policy:     policy,
	}

	for _, rec := range history {
		if rec.RawKey == "" || rec.CanonicalName == "" || rec.PeriodKey == "" {
			l.defects++
			common.LogDebug("skipping historical record", common.Fields{
				"raw_key": rec.RawKey,
				"period":  rec.PeriodKey,
				"error":   common.ErrMalformedRecord,
			})
			continue
		}
		l.observe(model.NormalizeKey(rec.RawKey), rec.CanonicalName, rec.PeriodKey)
	}

	if l.defects > 0 {
		slog.Warn("ledger built with defective records skipped",
			"entries", len(l.entries),
			"defects", l.defects)
	}

	return l
}

// observe applies one sighting. Callers hold no lock; single-writer only.
func (l *Ledger) observe(rawKey, canonical, periodKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[rawKey]
	if !ok {
		entry = &model.LedgerEntry{
			RawKey:        rawKey,
			CanonicalName: canonical,
		}
		l.entries[rawKey] = entry
		l.lastPeriod[rawKey] = periodKey
	}

	entry.Occurrences++
	entry.SeenIn(periodKey)

	if canonical != entry.CanonicalName {
		switch l.policy {
		case FirstSeenWins:
			// Earliest assignment stands.
		default:
			if periodKey >= l.lastPeriod[rawKey] {
				entry.CanonicalName = canonical
			}
		}
	}
	if periodKey >= l.lastPeriod[rawKey] {
		l.lastPeriod[rawKey] = periodKey
	}
}

// Observe records a fresh resolution from the current run so later
// transactions in the same batch benefit from it. Counts only ever increase.
func (l *Ledger) Observe(rawKey, canonical, periodKey string) {
	l.observe(rawKey, canonical, periodKey)
}

// Lookup returns a detached copy of the entry for a raw key. The second
// return is false when the merchant has never been seen.
func (l *Ledger) Lookup(rawKey string) (model.LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[rawKey]
	if !ok {
		return model.LedgerEntry{}, false
	}

	view := *entry
	if entry.PeriodsSeen != nil {
		view.PeriodsSeen = make(map[string]struct{}, len(entry.PeriodsSeen))
		for period := range entry.PeriodsSeen {
			view.PeriodsSeen[period] = struct{}{}
		}
	}
	return view, true
}

// Size returns the number of distinct raw keys in the ledger.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Defects returns how many malformed historical records were skipped.
func (l *Ledger) Defects() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.defects
}

// TierCounts returns how many entries fall in each confidence tier.
func (l *Ledger) TierCounts() map[model.ConfidenceTier]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[model.ConfidenceTier]int, 3)
	for _, entry := range l.entries {
		counts[entry.Tier()]++
	}
	return counts
}
