package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/ledger"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"
)

// validationBonus is the score prior carried by the validation role, which
// sees the other roles' job restated and tends to produce the cleanest form.
const validationBonus = 10.0

// role is one slot in the ensemble: a prompt builder with its own sampling
// temperature and model slot.
type role struct {
	buildPrompt func(input string, exemplars []ledger.Exemplar, tx model.RawTransaction) string
	name        string
	temperature float64
	slot        int
	bonus       float64
}

// Failures counts per-batch generation problems by kind. Failures are
// recorded, never fatal: the ensemble degrades to fewer candidates.
type Failures struct {
	Timeout     int
	Unavailable int
	Unusable    int
}

// Total returns the number of failed role requests.
func (f Failures) Total() int {
	return f.Timeout + f.Unavailable + f.Unusable
}

// Add accumulates another failure count into this one.
func (f Failures) Add(other Failures) Failures {
	f.Timeout += other.Timeout
	f.Unavailable += other.Unavailable
	f.Unusable += other.Unusable
	return f
}

// Ensemble fans one description out to several differently-prompted
// generation requests and collects the sanitized answers as candidates.
type Ensemble struct {
	client  Client
	limiter *rate.Limiter
	cfg     Config
	roles   []role
	timeout time.Duration
}

// NewEnsemble creates the three-role resolver: extraction, location
// stripping, and validation.
func NewEnsemble(client Client, cfg Config) *Ensemble {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &Ensemble{
		client:  client,
		cfg:     cfg,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		roles: []role{
			{name: "extraction", temperature: 0, slot: 0, buildPrompt: extractionPrompt},
			{name: "location", temperature: 0, slot: 1, buildPrompt: locationPrompt},
			{name: "validation", temperature: 0.1, slot: 2, bonus: validationBonus, buildPrompt: validationPrompt},
		},
	}
}

// ResolveCandidates runs every role concurrently against the input. Each
// role gets its own timeout; a role failure is counted by kind and the rest
// of the ensemble still contributes. The error return is non-nil only when
// the parent context is canceled.
func (e *Ensemble) ResolveCandidates(ctx context.Context, input string, exemplars []ledger.Exemplar, tx model.RawTransaction) ([]model.Candidate, Failures, error) {
	type slot struct {
		candidate model.Candidate
		failures  Failures
		ok        bool
	}
	results := make([]slot, len(e.roles))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range e.roles {
		i, r := i, r
		g.Go(func() error {
			text, err := e.runRole(gctx, r, input, exemplars, tx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i].failures = classifyFailure(err)
				common.LogDebug("ensemble role failed", common.Fields{
					"role":  r.name,
					"error": err,
				})
				return nil
			}
			results[i] = slot{
				candidate: model.Candidate{
					Text:   text,
					Source: model.SourceEnsemble,
					Role:   r.name,
					Score:  r.bonus,
				},
				ok: true,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Failures{}, fmt.Errorf("ensemble canceled: %w", err)
	}

	var candidates []model.Candidate
	var failures Failures
	for _, s := range results {
		failures = failures.Add(s.failures)
		if s.ok {
			candidates = append(candidates, s.candidate)
		}
	}
	return candidates, failures, nil
}

// runRole executes one role request with pacing, a per-request timeout, and
// retry on transient provider failures.
func (e *Ensemble) runRole(ctx context.Context, r role, input string, exemplars []ledger.Exemplar, tx model.RawTransaction) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.limiter.Wait(reqCtx); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrGenerationTimeout, err)
	}

	req := Request{
		Prompt:      r.buildPrompt(input, exemplars, tx),
		Model:       e.cfg.ModelForSlot(r.slot),
		Temperature: r.temperature,
		MaxTokens:   e.cfg.MaxTokens,
	}

	var raw string
	err := common.WithRetry(reqCtx, func() error {
		var genErr error
		raw, genErr = e.client.Generate(reqCtx, req)
		return genErr
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: 500 * time.Millisecond})
	if err != nil {
		return "", err
	}

	return Sanitize(raw, input)
}

// classifyFailure maps a role error onto the batch failure taxonomy.
func classifyFailure(err error) Failures {
	switch {
	case errors.Is(err, common.ErrGenerationTimeout) || errors.Is(err, context.DeadlineExceeded):
		return Failures{Timeout: 1}
	case errors.Is(err, common.ErrGenerationUnavailable):
		return Failures{Unavailable: 1}
	default:
		return Failures{Unusable: 1}
	}
}

func extractionPrompt(input string, exemplars []ledger.Exemplar, tx model.RawTransaction) string {
	var b strings.Builder
	b.WriteString("Extract the merchant or business name from this bank statement text.\n\n")
	fmt.Fprintf(&b, "Statement text: %s\n", input)
	if !tx.Date.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", tx.Date.Format("2006-01-02"))
	}
	if tx.Amount != 0 {
		fmt.Fprintf(&b, "Amount: %.2f\n", tx.Amount)
	}

	if len(exemplars) > 0 {
		b.WriteString("\nSimilar statement text has previously resolved to:\n")
		for _, ex := range exemplars {
			fmt.Fprintf(&b, "- %s (seen %d times)\n", ex.CanonicalName, ex.Occurrences)
		}
	}

	b.WriteString("\nRespond with only the merchant name, nothing else.")
	return b.String()
}

func locationPrompt(input string, _ []ledger.Exemplar, _ model.RawTransaction) string {
	var b strings.Builder
	b.WriteString("Remove any city, state, street, or store-location words from this merchant text, keeping only the business name.\n\n")
	fmt.Fprintf(&b, "Merchant text: %s\n", input)
	b.WriteString("\nRespond with only the cleaned name, nothing else.")
	return b.String()
}

func validationPrompt(input string, _ []ledger.Exemplar, _ model.RawTransaction) string {
	var b strings.Builder
	b.WriteString("Give the proper business name for this bank statement merchant text, as a customer would say it.\n\n")
	fmt.Fprintf(&b, "Merchant text: %s\n", input)
	b.WriteString("\nRespond with only the name, nothing else.")
	return b.String()
}
