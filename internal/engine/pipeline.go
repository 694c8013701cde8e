// Package engine drives raw transactions through the resolution pipeline:
// preprocess, ledger check, ensemble, vote, normalize.
package engine

import (
	"context"
	"fmt"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/ledger"
	"github.com/halcyonfi/namewise/internal/llm"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/normalize"
	"github.com/halcyonfi/namewise/internal/preprocess"
	"github.com/halcyonfi/namewise/internal/vote"
)

// CandidateResolver produces candidate names for one description. It is the
// generation side of the pipeline; llm.Ensemble implements it.
type CandidateResolver interface {
	ResolveCandidates(ctx context.Context, input string, exemplars []ledger.Exemplar, tx model.RawTransaction) ([]model.Candidate, llm.Failures, error)
}

// Config holds pipeline tuning knobs.
type Config struct {
	// ExemplarCount is how many similar known merchants to offer the
	// ensemble as context.
	ExemplarCount int
	// Concurrency bounds how many transactions resolve in parallel.
	Concurrency int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExemplarCount: 3,
		Concurrency:   4,
	}
}

// Pipeline resolves raw transactions to canonical merchant names. It reads
// the ledger concurrently but never writes it; the batch runner is the
// single writer.
type Pipeline struct {
	ledger   *ledger.Ledger
	pre      *preprocess.Preprocessor
	resolver CandidateResolver
	cfg      Config
}

// New creates a pipeline over an existing ledger.
func New(l *ledger.Ledger, resolver CandidateResolver, cfg Config) *Pipeline {
	if cfg.ExemplarCount <= 0 {
		cfg.ExemplarCount = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Pipeline{
		ledger:   l,
		pre:      preprocess.New(),
		resolver: resolver,
		cfg:      cfg,
	}
}

// ResolveStats reports how one resolution was reached.
type ResolveStats struct {
	// PreprocessorHit is true when a deterministic rule fully resolved the
	// name with zero generation calls.
	PreprocessorHit bool
	// LedgerHit is true when a HIGH-tier ledger entry short-circuited the
	// ensemble.
	LedgerHit bool
	// Failures counts generation problems encountered along the way.
	Failures llm.Failures
}

// Resolve runs one transaction through the pipeline. An unresolvable
// transaction returns common.ErrNoCandidates; only cancellation and
// collaborator breakage produce other errors.
func (p *Pipeline) Resolve(ctx context.Context, tx model.RawTransaction) (model.ResolutionResult, ResolveStats, error) {
	var stats ResolveStats

	rawKey := model.NormalizeKey(tx.Description)
	if rawKey == "" {
		return model.ResolutionResult{}, stats, fmt.Errorf("%w: empty description", common.ErrNoCandidates)
	}

	outcome := p.pre.Apply(tx.Description)

	// A fully deterministic resolution skips the ledger and the ensemble.
	if outcome.Kind == preprocess.KindResolved {
		stats.PreprocessorHit = true
		return p.finish(rawKey, model.Candidate{
			Text:   outcome.Text,
			Source: model.SourcePreprocessor,
		}), stats, nil
	}

	// The ledger is keyed by the original description, not the preprocessed
	// text, so stripping noise cannot orphan a known merchant.
	entry, found := p.ledger.Lookup(rawKey)
	var entryRef *model.LedgerEntry
	if found {
		entryRef = &entry
	}

	if found && entry.Tier() == model.TierHigh {
		stats.LedgerHit = true
		winner, _ := vote.Pick(nil, entryRef)
		return p.finish(rawKey, winner), stats, nil
	}

	exemplars := p.ledger.FindExemplars(rawKey, p.cfg.ExemplarCount)
	candidates, failures, err := p.resolver.ResolveCandidates(ctx, outcome.Text, exemplars, tx)
	stats.Failures = failures
	if err != nil {
		return model.ResolutionResult{}, stats, err
	}

	// Preprocessed text that survived a rule is itself a candidate.
	if outcome.Kind == preprocess.KindExtracted || outcome.Kind == preprocess.KindStripped {
		candidates = append(candidates, model.Candidate{
			Text:   outcome.Text,
			Source: model.SourcePreprocessor,
		})
	}

	winner, ok := vote.Pick(candidates, entryRef)
	if !ok {
		return model.ResolutionResult{}, stats, fmt.Errorf("%w: %s", common.ErrNoCandidates, rawKey)
	}

	result := p.finish(rawKey, winner)
	if result.CanonicalName == "" {
		return model.ResolutionResult{}, stats, fmt.Errorf("%w: winner normalized to nothing for %s", common.ErrNoCandidates, rawKey)
	}
	return result, stats, nil
}

// finish normalizes the winning candidate and assembles the result. The tier
// reflects the ledger count including this sighting.
func (p *Pipeline) finish(rawKey string, winner model.Candidate) model.ResolutionResult {
	occurrences := 1
	if entry, ok := p.ledger.Lookup(rawKey); ok {
		occurrences = entry.Occurrences + 1
	}

	return model.ResolutionResult{
		RawKey:        rawKey,
		CanonicalName: normalize.Clean(winner.Text),
		Tier:          model.TierForCount(occurrences),
		Source:        winner.Source,
	}
}
