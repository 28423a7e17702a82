package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/flashcarder/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		input       string
		output      string
		format      string
		limit       int
		concurrency int
		confirm     bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Submit a file of notes without the interactive front-end",
		Long: `Reads notes from a JSONL or Parquet file and submits each one in its
own session. Every row has "text" and optionally "id", "deck" and
"images" (paths to image files). The deck falls back to --deck.

In manual mode pairs are only extracted unless --confirm is given, in
which case all of them are added.`,
		Example: `  # Add cards for every note in a file
  flashcarder batch --input notes.jsonl --mode auto --deck Biology

  # Extract and confirm, writing a CSV report
  flashcarder batch --input notes.parquet --confirm --format csv --output report.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			notes, err := batch.NewLoader(input).LoadSample(limit)
			if err != nil {
				return fmt.Errorf("failed to load notes: %w", err)
			}
			slog.Info("Loaded notes", "count", len(notes), "path", input)

			runner := &batch.Runner{
				Backend:     cfg.Backend(slog.Default()),
				Mode:        cfg.ModeValue(),
				Deck:        cfg.Deck,
				Concurrency: concurrency,
				Confirm:     confirm,
			}
			report := runner.Run(cmd.Context(), notes)

			w := cmd.OutOrStdout()
			if output != "" {
				if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create report: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := batch.WriteReport(w, report, format); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if output != "" {
				slog.Info("Report written", "path", output)
			}

			if report.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d notes failed", report.Summary.Failed, report.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Notes file (.jsonl or .parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Report file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "text", "Report format: text, json, csv")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Process at most this many notes")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "Notes in flight at once")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "In manual mode, add every extracted pair")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
