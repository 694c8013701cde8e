package model

// ConfidenceTier is a coarse confidence classification derived purely from
// how often a merchant has been seen in history. It is recomputed on demand
// and never stored, so it cannot drift from the occurrence count.
type ConfidenceTier string

const (
	// TierHigh means the merchant has been seen at least five times.
	TierHigh ConfidenceTier = "high"
	// TierMedium means the merchant has been seen two to four times.
	TierMedium ConfidenceTier = "medium"
	// TierLow means the merchant has been seen exactly once.
	TierLow ConfidenceTier = "low"
)

// TierForCount maps an occurrence count to its confidence tier.
func TierForCount(count int) ConfidenceTier {
	switch {
	case count >= 5:
		return TierHigh
	case count >= 2:
		return TierMedium
	default:
		return TierLow
	}
}

// LedgerEntry tracks everything the ledger knows about one raw key.
type LedgerEntry struct {
	PeriodsSeen   map[string]struct{}
	RawKey        string
	CanonicalName string
	Occurrences   int
}

// Tier returns the confidence tier for this entry's occurrence count.
func (e *LedgerEntry) Tier() ConfidenceTier {
	return TierForCount(e.Occurrences)
}

// SeenIn records that this merchant appeared in the given period.
func (e *LedgerEntry) SeenIn(periodKey string) {
	if e.PeriodsSeen == nil {
		e.PeriodsSeen = make(map[string]struct{})
	}
	e.PeriodsSeen[periodKey] = struct{}{}
}
