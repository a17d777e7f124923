package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"labelclean/internal/batch"
	"labelclean/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statePath := filepath.Join(cfg.Paths.LogDir, batch.StateFileName)
			state, err := batch.LoadState(statePath)
			if os.IsNotExist(err) {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read checkpoint: %w", err)
			}

			progress := "in progress"
			if state.Finished() {
				progress = "finished"
			}
			rows := [][2]string{
				{"Run ID", state.RunID},
				{"State", progress},
				{"Started", state.StartedAt.Local().Format(time.RFC1123)},
				{"Last update", state.LastUpdatedAt.Local().Format(time.RFC1123)},
				{"Batches completed", fmt.Sprintf("%d / %d", state.LastCompletedBatchIndex+1, state.TotalBatches)},
				{"Files processed", fmt.Sprintf("%d / %d", state.ProcessedFileCount, state.TotalFileCount)},
				{"Errors", strconv.Itoa(len(state.Errors))},
			}

			ledgerPath := filepath.Join(cfg.Paths.LogDir, batch.LedgerFileName)
			if _, err := os.Stat(ledgerPath); err == nil {
				store, err := runlog.Open(ledgerPath)
				if err != nil {
					return fmt.Errorf("open run ledger: %w", err)
				}
				defer func() { _ = store.Close() }()
				counts, err := store.Summary(cmd.Context(), state.RunID)
				if err != nil {
					return fmt.Errorf("read run ledger: %w", err)
				}
				for _, status := range sortedKeys(counts) {
					rows = append(rows, [2]string{"Files " + status, strconv.Itoa(counts[status])})
				}
			}

			fmt.Fprintln(out, renderPairs("Field", "Value", rows, true))

			for _, msg := range state.Errors {
				fmt.Fprintf(out, "error: %s\n", msg)
			}
			return nil
		},
	}
}
