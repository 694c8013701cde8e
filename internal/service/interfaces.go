// Package service defines the interfaces the core consumes from collaborators.
package service

import (
	"context"
	"time"

	"github.com/halcyonfi/namewise/internal/model"
)

// HistoryRecord is one corrected resolution from a prior period. The core
// receives these from a collaborator; it never reads statement files itself.
type HistoryRecord struct {
	RawKey        string
	CanonicalName string
	PeriodKey     string
}

// HistorySource supplies historical corrected records, ordered by period.
type HistorySource interface {
	Records(ctx context.Context) ([]HistoryRecord, error)
}

// CommitSink persists finished resolutions for future runs. Persistence
// format is owned by the implementation, not the core.
type CommitSink interface {
	Commit(ctx context.Context, result model.ResolutionResult, periodKey string) error
}

// Storage is the durable store used by the CLI: a history source that can
// also accept commits and report per-merchant statistics.
type Storage interface {
	HistorySource
	CommitSink
	MerchantStats(ctx context.Context) ([]MerchantStat, error)
	Migrate(ctx context.Context) error
	Close() error
}

// MerchantStat summarizes one merchant's footprint in durable history.
type MerchantStat struct {
	CanonicalName string
	Occurrences   int
	Periods       int
}

// RetryOptions configures retry behavior for external calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
