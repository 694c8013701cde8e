package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halcyonfi/namewise/internal/cli"
	"github.com/halcyonfi/namewise/internal/ledger"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/storage"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the historical merchant ledger",
	}
	cmd.AddCommand(ledgerStatsCmd())
	return cmd
}

func ledgerStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger size, confidence tiers, and top merchants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := storage.NewSQLiteStorage(databasePath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}

			records, err := store.Records(ctx)
			if err != nil {
				return err
			}
			l := ledger.Build(records, ledger.DisplayPolicy(viper.GetString("ledger.policy")))
			tiers := l.TierCounts()

			stats, err := store.MerchantStats(ctx)
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "  • Distinct raw keys: %d\n", l.Size())
			fmt.Fprintf(&b, "  • Confidence: %d high / %d medium / %d low\n",
				tiers[model.TierHigh], tiers[model.TierMedium], tiers[model.TierLow])

			if len(stats) > 0 {
				b.WriteString("\n  Top merchants:\n")
				limit := 10
				if len(stats) < limit {
					limit = len(stats)
				}
				for _, s := range stats[:limit] {
					fmt.Fprintf(&b, "  %3d× %s (%d periods)\n", s.Occurrences, s.CanonicalName, s.Periods)
				}
			}

			fmt.Println(cli.RenderBox("Ledger", b.String()))
			return nil
		},
	}

	cmd.Flags().String("db", "", "resolutions database path")
	cmd.Flags().String("policy", "most-recent", "name disagreement policy (most-recent, first-seen)")
	_ = viper.BindPFlag("storage.db", cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("ledger.policy", cmd.Flags().Lookup("policy"))

	return cmd
}
