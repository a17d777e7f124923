package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"labelclean/internal/batch"
	"labelclean/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		fresh     bool
		fromBatch int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the input directory in batches",
		Long: "Reads product label files from the configured input directory, cleans and " +
			"classifies every ingredient against the reference taxonomies, and writes " +
			"routed results to the output directory. Progress is checkpointed after " +
			"each batch; an interrupted run resumes automatically on the next " +
			"invocation unless --fresh is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// SIGINT and SIGTERM stop the run at the next batch boundary; the
			// checkpoint keeps everything already completed.
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "labelclean*.log",
				cfg.Logging.RetentionDays, filepath.Join(cfg.Paths.LogDir, "labelclean.log"))

			summary, err := batch.New(cfg, logger).Run(signalCtx, batch.Options{
				Fresh:     fresh,
				FromBatch: fromBatch,
				DryRun:    dryRun,
			})
			if summary != nil {
				printSummary(cmd, summary)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard any existing checkpoint and start from batch 1")
	cmd.Flags().IntVar(&fromBatch, "from-batch", 0, "Force the resume point to a batch number (1-based)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration and reference data without writing output")
	return cmd
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()
	if summary.Interrupted {
		fmt.Fprintln(out, "Run interrupted; rerun to continue from the checkpoint.")
	}

	rows := [][2]string{
		{"Run ID", summary.RunID},
		{"Files", fmt.Sprintf("%d / %d", summary.ProcessedFiles, summary.TotalFiles)},
		{"Batches", fmt.Sprintf("%d run, %d total", summary.BatchesRun, summary.TotalBatches)},
	}
	for _, status := range sortedKeys(summary.StatusCounts) {
		rows = append(rows, [2]string{"Status " + status, strconv.Itoa(summary.StatusCounts[status])})
	}
	rows = append(rows, [2]string{"Unmapped ingredients", strconv.Itoa(summary.UnmappedCount)})
	fmt.Fprintln(out, renderPairs("Metric", "Value", rows, true))

	for _, msg := range summary.Errors {
		fmt.Fprintf(out, "error: %s\n", msg)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
