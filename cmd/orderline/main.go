package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderline/internal/config"
	"orderline/internal/journal"
	"orderline/internal/ledger"
	"orderline/internal/llm"
	"orderline/internal/metrics"
	"orderline/internal/pipeline"
)

var version = "dev"

var (
	verbose bool
	cfgPath string
	dryRun  bool
	noLLM   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orderline",
	Short: "orderline - Taglish order messages into the shared order sheet",
	Long: `orderline turns free-text Filipino/English order messages into
structured orders and appends them to the shared Google Sheets ledger.

Parsing runs twice: a language-model pass when an API key is configured,
and a deterministic regex pass that also serves as the fallback. The
model's answer is never trusted; it is reconciled against the catalog
before anything reaches the sheet.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [message]",
	Short: "Parse a message and print the structured order without persisting",
	Long: `Runs the full parse path on one message and prints the resulting
order as JSON. Nothing is written to the ledger or the journal.

Example:
  orderline parse "2 cheese pouches and 1 bbq tub for Maria, gcash, QC"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

var submitCmd = &cobra.Command{
	Use:   "submit [message]",
	Short: "Parse a message and persist the order to the ledger",
	Long: `Parses the message, then immediately confirms the draft: a row is
claimed on the sheet and the order's cells are written. Use --dry-run to
exercise the whole path against an in-memory sheet instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recent orders from the local journal",
	RunE:  runRecent,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the orderline version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("orderline %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "orderline.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&noLLM, "no-llm", false, "Skip the language model, deterministic parser only")
	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write to an in-memory sheet instead of Google Sheets")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func buildClient(ctx context.Context, cfg *config.Config) llm.Client {
	if noLLM || cfg.LLM.APIKey == "" {
		logger.Debug("no language model configured, deterministic parser only")
		return nil
	}
	client, err := llm.NewClient(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.GetLLMTimeout(),
	})
	if err != nil {
		logger.Warn("language model unavailable, deterministic parser only", zap.Error(err))
		return nil
	}
	return client
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	proc := pipeline.New(pipeline.Options{
		Client: buildClient(ctx, cfg),
		Grid:   ledger.NewMemoryGrid(),
		Log:    logger,
	})

	d, err := proc.Handle(ctx, "cli", strings.Join(args, " "))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(d.Order, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render order: %w", err)
	}
	fmt.Println(string(out))
	fmt.Printf("\nstate: %s  grand total: %d\n", d.State, d.Order.GrandTotal())
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var grid ledger.Grid
	if dryRun {
		grid = ledger.NewMemoryGrid()
	} else {
		grid, err = ledger.NewSheetsGrid(ctx, ledger.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Worksheet:       cfg.Sheets.SheetName,
			CredentialsJSON: []byte(cfg.Sheets.CredentialsJSON),
		})
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
	}

	j, err := journal.Open(cfg.Journal.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	reg := metrics.NewRegistry()
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	proc := pipeline.New(pipeline.Options{
		Client:   buildClient(ctx, cfg),
		Grid:     grid,
		Journal:  j,
		Metrics:  reg,
		Log:      logger,
		ScanRows: cfg.Sheets.ScanRows,
	})

	d, err := proc.Handle(ctx, "cli", strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(d.Order.Items) == 0 {
		fmt.Println("no products recognized; nothing to submit")
		fmt.Printf("state: %s\n", d.State)
		return nil
	}

	d, err = proc.Confirm(ctx, "cli")
	if err != nil {
		return err
	}
	fmt.Printf("order persisted: row %d, customer %q, grand total %d\n",
		d.Row, d.Order.CustomerName, d.Order.GrandTotal())
	if dryRun {
		fmt.Println("(dry run: in-memory sheet, nothing reached Google Sheets)")
	}
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	j, err := journal.Open(cfg.Journal.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	entries, err := j.Recent(20)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("journal is empty")
		return nil
	}
	for _, e := range entries {
		row := "-"
		if e.Row > 0 {
			row = fmt.Sprintf("%d", e.Row)
		}
		fmt.Printf("%s  %-12s row %-4s total %-6d %s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.State, row, e.Total,
			truncate(e.RawText, 60))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
