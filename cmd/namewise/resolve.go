package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halcyonfi/namewise/internal/cli"
	"github.com/halcyonfi/namewise/internal/common"
	"github.com/halcyonfi/namewise/internal/engine"
	"github.com/halcyonfi/namewise/internal/history"
	"github.com/halcyonfi/namewise/internal/ledger"
	"github.com/halcyonfi/namewise/internal/llm"
	"github.com/halcyonfi/namewise/internal/model"
	"github.com/halcyonfi/namewise/internal/service"
	"github.com/halcyonfi/namewise/internal/storage"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve merchant names for a statement CSV",
		Long: `Reads raw transactions from a CSV file (date, description, amount),
resolves each description to a canonical merchant name, and commits the
results so future runs recognize these merchants.`,
		RunE: runResolve,
	}

	cmd.Flags().StringP("input", "i", "", "transactions CSV file (required)")
	cmd.Flags().StringP("output", "o", "", "write resolutions to this CSV file")
	cmd.Flags().String("period", "", "period key (YYYY-MM); derived from dates when empty")
	cmd.Flags().String("history-dir", "", "directory of prior-period corrected CSVs")
	cmd.Flags().Bool("dry-run", false, "resolve without committing to storage")
	_ = cmd.MarkFlagRequired("input")

	cmd.Flags().String("db", "", "resolutions database path")
	cmd.Flags().String("policy", "most-recent", "name disagreement policy (most-recent, first-seen)")
	cmd.Flags().Int("exemplars", 3, "similar known merchants offered as context")
	cmd.Flags().Int("concurrency", 4, "transactions resolved in parallel")

	cmd.Flags().String("provider", "ollama", "generation provider (ollama, openai)")
	cmd.Flags().String("base-url", "", "provider base URL")
	cmd.Flags().String("model", "llama3.2", "primary model")
	cmd.Flags().String("secondary-model", "", "secondary model for ensemble variety")
	cmd.Flags().Int("rpm", 60, "generation requests per minute")
	cmd.Flags().Int("max-tokens", 35, "completion token budget per request")

	_ = viper.BindPFlag("storage.db", cmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("ledger.policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("ledger.exemplars", cmd.Flags().Lookup("exemplars"))
	_ = viper.BindPFlag("resolve.concurrency", cmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("llm.provider", cmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.base_url", cmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("llm.model", cmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("llm.secondary_model", cmd.Flags().Lookup("secondary-model"))
	_ = viper.BindPFlag("llm.rpm", cmd.Flags().Lookup("rpm"))
	_ = viper.BindPFlag("llm.max_tokens", cmd.Flags().Lookup("max-tokens"))

	return cmd
}

func runResolve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	start := time.Now()

	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	period, _ := cmd.Flags().GetString("period")
	historyDir, _ := cmd.Flags().GetString("history-dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	txs, defects, err := history.LoadTransactions(input, period)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not read transactions from %s", input), err)
	}
	if defects > 0 {
		slog.Warn("skipped malformed transaction rows", "count", defects)
	}
	if len(txs) == 0 {
		fmt.Println(cli.FormatWarning("No transactions to resolve"))
		return nil
	}

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

	if historyDir != "" {
		src := history.NewCSVSource(historyDir)
		csvRecords, err := src.Records(ctx)
		if err != nil {
			return err
		}
		if src.Defects() > 0 {
			slog.Warn("skipped malformed history rows", "count", src.Defects())
		}
		records = append(records, csvRecords...)
	}

	l := ledger.Build(records, ledger.DisplayPolicy(viper.GetString("ledger.policy")))
	common.LogInfo("ledger ready", common.Fields{
		"entries": l.Size(),
		"defects": l.Defects(),
	})

	client, err := llm.NewClient(generationConfig())
	if err != nil {
		return err
	}
	ensemble := llm.NewEnsemble(client, generationConfig())

	pipeline := engine.New(l, ensemble, engine.Config{
		ExemplarCount: viper.GetInt("ledger.exemplars"),
		Concurrency:   viper.GetInt("resolve.concurrency"),
	})

	var sink service.CommitSink
	if !dryRun {
		sink = store
	}

	bar := cli.NewProgressBar(os.Stderr, len(txs), "Resolving merchants...")
	var results []model.ResolutionResult
	summary, err := pipeline.RunBatch(ctx, txs, sink, func(r model.ResolutionResult, err error) {
		_ = bar.Add(1)
		if err == nil {
			results = append(results, r)
		}
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	if output != "" {
		if err := writeResults(output, results); err != nil {
			return common.NewUserError(fmt.Sprintf("Could not write results to %s", output), err)
		}
	}

	fmt.Println(cli.RenderSummary(summary, time.Since(start)))
	return nil
}

func databasePath() string {
	if db := viper.GetString("storage.db"); db != "" {
		return db
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "namewise.db"
	}
	return home + "/.local/share/namewise/namewise.db"
}

func generationConfig() llm.Config {
	return llm.Config{
		Provider:          viper.GetString("llm.provider"),
		BaseURL:           viper.GetString("llm.base_url"),
		APIKey:            viper.GetString("llm.api_key"),
		PrimaryModel:      viper.GetString("llm.model"),
		SecondaryModel:    viper.GetString("llm.secondary_model"),
		MaxTokens:         viper.GetInt("llm.max_tokens"),
		RequestsPerMinute: viper.GetInt("llm.rpm"),
	}
}

func writeResults(path string, results []model.ResolutionResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"raw_key", "canonical_name", "tier", "source"}); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	for _, r := range results {
		if err := w.Write([]string{r.RawKey, r.CanonicalName, string(r.Tier), string(r.Source)}); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
