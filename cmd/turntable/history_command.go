package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"turntable/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID int64

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs and item outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LedgerPath == "" {
				return fmt.Errorf("run history is disabled (paths.ledger_path is empty)")
			}

			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if runID > 0 {
				return printRunItems(cmd, store, runID)
			}
			return printRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().Int64Var(&runID, "run", 0, "Show item outcomes for one run instead")
	return cmd
}

func printRuns(cmd *cobra.Command, store *ledger.Store, limit int) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "running"
		if run.Finished {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(run.ItemCount),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
			duration,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Run", "Started", "Items", "Succeeded", "Failed", "Duration"}, rows, 0, 2, 3, 4, 5))
	return nil
}

func printRunItems(cmd *cobra.Command, store *ledger.Store, runID int64) error {
	items, err := store.RunItems(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("list items for run %d: %w", runID, err)
	}
	if len(items) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No items recorded for run %d.\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.SourcePath,
			item.Status,
			item.Stage,
			item.Duration.Round(100 * time.Millisecond).String(),
			item.Error,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Item", "Status", "Stage", "Elapsed", "Error"}, rows, 3))
	return nil
}
