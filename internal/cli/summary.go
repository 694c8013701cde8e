package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/halcyonfi/namewise/internal/engine"
	"github.com/halcyonfi/namewise/internal/model"
)

// RenderSummary renders the end-of-batch report box.
func RenderSummary(summary engine.Summary, elapsed time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "  • Transactions: %d\n", summary.Total)
	fmt.Fprintf(&b, "  • Resolved: %s\n", SuccessStyle.Render(fmt.Sprintf("%d", summary.Resolved)))
	if summary.Unresolved > 0 {
		fmt.Fprintf(&b, "  • Unresolved: %s\n", WarningStyle.Render(fmt.Sprintf("%d", summary.Unresolved)))
	}

	fmt.Fprintf(&b, "  • Confidence: %d high / %d medium / %d low\n",
		summary.TierCounts[model.TierHigh],
		summary.TierCounts[model.TierMedium],
		summary.TierCounts[model.TierLow])
	fmt.Fprintf(&b, "  • Rule hits: %d, ledger hits: %d\n",
		summary.PreprocessorHits, summary.LedgerHits)

	if summary.Failures.Total() > 0 {
		fmt.Fprintf(&b, "  • Generation failures: %d timeout / %d unavailable / %d unusable\n",
			summary.Failures.Timeout,
			summary.Failures.Unavailable,
			summary.Failures.Unusable)
	}
	if summary.CommitFailures > 0 {
		fmt.Fprintf(&b, "  • %s\n", ErrorStyle.Render(fmt.Sprintf("Commit failures: %d", summary.CommitFailures)))
	}
	fmt.Fprintf(&b, "  • Time taken: %s", elapsed.Round(time.Second))

	return RenderBox("Resolution Complete", b.String())
}
