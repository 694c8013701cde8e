package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/llm"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"
)

// Summary reports what happened across one batch run.
type Summary struct {
	TierCounts       map[model.ConfidenceTier]int
	Failures         llm.Failures
	Total            int
	Resolved         int
	Unresolved       int
	PreprocessorHits int
	LedgerHits       int
	CommitFailures   int
}

// RunBatch resolves transactions concurrently. Workers only read the ledger;
// this goroutine is the single writer, applying each finished resolution to
// the ledger and the commit sink in completion order. Cancellation abandons
// in-flight work without mutating the ledger. The sink may be nil; onOutcome,
// when non-nil, is called once per completed transaction, with a non-nil
// error for the unresolved ones.
func (p *Pipeline) RunBatch(ctx context.Context, txs []model.RawTransaction, sink service.CommitSink, onOutcome func(model.ResolutionResult, error)) (Summary, error) {
	summary := Summary{
		Total:      len(txs),
		TierCounts: make(map[model.ConfidenceTier]int, 3),
	}

	type outcome struct {
		err    error
		tx     model.RawTransaction
		result model.ResolutionResult
		stats  ResolveStats
	}
	outcomes := make(chan outcome)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	var waitErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, tx := range txs {
			tx := tx
			g.Go(func() error {
				result, stats, err := p.Resolve(gctx, tx)
				if err != nil && gctx.Err() != nil {
					return gctx.Err()
				}
				select {
				case outcomes <- outcome{tx: tx, result: result, stats: stats, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		summary.Failures = summary.Failures.Add(o.stats.Failures)

		if o.err != nil {
			if errors.Is(o.err, common.ErrNoCandidates) {
				summary.Unresolved++
				slog.Debug("transaction unresolved",
					"description", o.tx.Description,
					"error", o.err)
			}
			if onOutcome != nil {
				onOutcome(o.result, o.err)
			}
			continue
		}

		summary.Resolved++
		summary.TierCounts[o.result.Tier]++
		if o.stats.PreprocessorHit {
			summary.PreprocessorHits++
		}
		if o.stats.LedgerHit {
			summary.LedgerHits++
		}

		p.ledger.Observe(o.result.RawKey, o.result.CanonicalName, o.tx.PeriodKey)

		if sink != nil {
			if err := sink.Commit(ctx, o.result, o.tx.PeriodKey); err != nil {
				summary.CommitFailures++
				common.LogError(err, "failed to commit resolution", common.Fields{
					"raw_key": o.result.RawKey,
				})
			}
		}

		if onOutcome != nil {
			onOutcome(o.result, nil)
		}
	}

	<-done
	if waitErr != nil {
		return summary, fmt.Errorf("batch aborted: %w", waitErr)
	}
	return summary, nil
}
