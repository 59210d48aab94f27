package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"turntable/internal/pipeline"
)

func printSummary(cmd *cobra.Command, summary pipeline.Summary) {
	out := cmd.OutOrStdout()

	if summary.Failed == 0 {
		fmt.Fprintf(out, "Published %d of %d items.\n", summary.Succeeded, summary.Total)
		return
	}

	fmt.Fprintf(out, "Published %d of %d items, %d failed.\n", summary.Succeeded, summary.Total, summary.Failed)

	rows := make([][]string, 0, summary.Failed)
	for _, outcome := range summary.Outcomes {
		if outcome.Err == nil {
			continue
		}
		rows = append(rows, []string{
			outcome.Item.Base,
			outcome.Stage.Label(),
			outcome.Duration.Round(100 * time.Millisecond).String(),
			outcome.Err.Error(),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Item", "Stage", "Elapsed", "Error"}, rows, 2))
}
