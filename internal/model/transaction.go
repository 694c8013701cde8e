// Package model defines the core types shared across the resolution pipeline.
package model

import (
	"strings"
	"time"
)

// RawTransaction is a single statement line as supplied by the caller.
// It is immutable input; the pipeline never mutates it.
type RawTransaction struct {
	Date        time.Time
	Description string // Raw merchant text as captured from the statement
	PeriodKey   string // Statement period, e.g. "2025-03"
	Amount      float64
}

// RawKey returns the normalized ledger key for this transaction's description.
func (t RawTransaction) RawKey() string {
	return NormalizeKey(t.Description)
}

// NormalizeKey case-folds a raw description and collapses runs of whitespace
// so that trivially different captures of the same merchant share a key.
func NormalizeKey(description string) string {
	return strings.Join(strings.Fields(strings.ToUpper(description)), " ")
}
