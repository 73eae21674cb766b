// Package commands defines the tallyai CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShashankBhutiya/TallyAI/internal/buildinfo"
	"github.com/ShashankBhutiya/TallyAI/internal/config"
	"github.com/ShashankBhutiya/TallyAI/internal/ocr"
	"github.com/ShashankBhutiya/TallyAI/internal/pipeline"
	"github.com/ShashankBhutiya/TallyAI/internal/runlog"
	"github.com/ShashankBhutiya/TallyAI/internal/structure"
	"github.com/ShashankBhutiya/TallyAI/internal/tally"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tallyai",
		Short:   "Invoice OCR to Tally ERP voucher pipeline",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// newProcessor wires the pipeline from configuration.
func newProcessor(cfg *config.Config, logger *slog.Logger) (*pipeline.Processor, runlog.Store, error) {
	structurer, err := structure.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}

	enc := tally.NewEncoder(cfg.Company, cfg.FiscalYear)
	client := tally.NewClient(tally.ClientConfig{
		URL:     cfg.TallyURL,
		Timeout: cfg.RequestTimeout,
		Retries: cfg.RetryCount,
		Backoff: cfg.RetryBackoff,
	}, enc, logger)

	var store runlog.Store
	if cfg.RunLogPath != "" {
		store = runlog.NewCSVStore(cfg.RunLogPath)
	} else {
		store = runlog.NewMemoryStore()
	}

	proc := pipeline.New(pipeline.Params{
		LedgerName:   cfg.LedgerName,
		ContraLedger: cfg.ContraLedger,
		OCR:          ocr.NewTesseract(cfg.OCRLanguages...),
		Structurer:   structurer,
		Tally:        client,
		Store:        store,
		Logger:       logger,
	})
	return proc, store, nil
}
