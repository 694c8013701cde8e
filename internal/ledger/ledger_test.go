package ledger

import (
	"fmt"
	"testing"

	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(rawKey, canonical, period string) service.HistoryRecord {
	return service.HistoryRecord{RawKey: rawKey, CanonicalName: canonical, PeriodKey: period}
}

func TestBuild_AggregatesCounts(t *testing.T) {
	history := []service.HistoryRecord{
		rec("CASHWISE #1234 WEST FARGO ND", "Cashwise - West Fargo", "2025-01"),
		rec("CASHWISE #1234 WEST FARGO ND", "Cashwise - West Fargo", "2025-02"),
		rec("CASHWISE #1234 WEST FARGO ND", "Cashwise - West Fargo", "2025-02"),
		rec("COBORNS #42 ST CLOUD MN", "Coborn's", "2025-02"),
	}

	l := Build(history, MostRecentWins)

	entry, ok := l.Lookup("CASHWISE #1234 WEST FARGO ND")
	require.True(t, ok)
	assert.Equal(t, 3, entry.Occurrences)
	assert.Equal(t, "Cashwise - West Fargo", entry.CanonicalName)
	assert.Len(t, entry.PeriodsSeen, 2)

	entry, ok = l.Lookup("COBORNS #42 ST CLOUD MN")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Occurrences)
	assert.Equal(t, model.TierLow, entry.Tier())
}

func TestLookup_ReturnsDetachedCopy(t *testing.T) {
	l := Build([]service.HistoryRecord{
		rec("NETFLIX.COM", "Netflix", "2025-01"),
	}, MostRecentWins)

	entry, ok := l.Lookup("NETFLIX.COM")
	require.True(t, ok)
	entry.SeenIn("2099-12")

	again, ok := l.Lookup("NETFLIX.COM")
	require.True(t, ok)
	assert.NotContains(t, again.PeriodsSeen, "2099-12",
		"mutating a looked-up entry must not reach the ledger")
	assert.Len(t, again.PeriodsSeen, 1)
}

func TestBuild_SkipsMalformedRecords(t *testing.T) {
	history := []service.HistoryRecord{
		rec("GOOD KEY", "Good Merchant", "2025-01"),
		rec("", "Nameless", "2025-01"),
		rec("NO CANONICAL", "", "2025-01"),
		rec("NO PERIOD", "Merchant", ""),
	}

	l := Build(history, MostRecentWins)

	assert.Equal(t, 1, l.Size())
	assert.Equal(t, 3, l.Defects())
}

func TestBuild_DisagreementPolicies(t *testing.T) {
	history := []service.HistoryRecord{
		rec("ACME STORE #1", "Acme", "2025-01"),
		rec("ACME STORE #1", "Acme Store", "2025-03"),
		rec("ACME STORE #1", "Acme Hardware", "2025-02"),
	}

	tests := []struct {
		name   string
		policy DisplayPolicy
		want   string
	}{
		{name: "most recent period wins", policy: MostRecentWins, want: "Acme Store"},
		{name: "first seen wins", policy: FirstSeenWins, want: "Acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Build(history, tt.policy)
			entry, ok := l.Lookup("ACME STORE #1")
			require.True(t, ok)
			assert.Equal(t, tt.want, entry.CanonicalName)
			// Counts aggregate regardless of which name is displayed.
			assert.Equal(t, 3, entry.Occurrences)
		})
	}
}

func TestLedger_NormalizesKeys(t *testing.T) {
	l := Build([]service.HistoryRecord{
		rec("  cashwise   #1234  west fargo nd ", "Cashwise - West Fargo", "2025-01"),
	}, MostRecentWins)

	_, ok := l.Lookup("CASHWISE #1234 WEST FARGO ND")
	assert.True(t, ok)
}

func TestLedger_ObserveMonotonic(t *testing.T) {
	l := Build(nil, MostRecentWins)

	l.Observe("NEW MERCHANT", "New Merchant", "2025-04")
	entry, ok := l.Lookup("NEW MERCHANT")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Occurrences)
	assert.Equal(t, model.TierLow, entry.Tier())

	for i := 0; i < 4; i++ {
		l.Observe("NEW MERCHANT", "New Merchant", "2025-04")
	}
	entry, _ = l.Lookup("NEW MERCHANT")
	assert.Equal(t, 5, entry.Occurrences)
	assert.Equal(t, model.TierHigh, entry.Tier())
}

func TestLedger_MonotonicAcrossRebuilds(t *testing.T) {
	var history []service.HistoryRecord
	prev := 0

	for period := 1; period <= 6; period++ {
		history = append(history, rec("CASHWISE #1234 WEST FARGO ND", "Cashwise - West Fargo", fmt.Sprintf("2025-%02d", period)))

		l := Build(history, MostRecentWins)
		entry, ok := l.Lookup("CASHWISE #1234 WEST FARGO ND")
		require.True(t, ok)
		assert.GreaterOrEqual(t, entry.Occurrences, prev)
		prev = entry.Occurrences
	}

	assert.Equal(t, 6, prev)
}

func TestTierCounts(t *testing.T) {
	var history []service.HistoryRecord
	for i := 0; i < 6; i++ {
		history = append(history, rec("HIGH MERCHANT", "High", fmt.Sprintf("2025-%02d", i+1)))
	}
	history = append(history,
		rec("MEDIUM MERCHANT", "Medium", "2025-01"),
		rec("MEDIUM MERCHANT", "Medium", "2025-02"),
		rec("LOW MERCHANT", "Low", "2025-01"),
	)

	counts := Build(history, MostRecentWins).TierCounts()

	assert.Equal(t, 1, counts[model.TierHigh])
	assert.Equal(t, 1, counts[model.TierMedium])
	assert.Equal(t, 1, counts[model.TierLow])
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		want  model.ConfidenceTier
		count int
	}{
		{count: 1, want: model.TierLow},
		{count: 2, want: model.TierMedium},
		{count: 4, want: model.TierMedium},
		{count: 5, want: model.TierHigh},
		{count: 12, want: model.TierHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, model.TierForCount(tt.count), "count %d", tt.count)
	}
}
