package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turntable/internal/deps"
	"turntable/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools the pipeline shells out to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Command
				if !status.Available {
					detail = status.Detail
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					detail,
					status.Description,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Tool", "Available", "Command", "Purpose"}, rows))
			fmt.Fprintf(out, "Host: %s\n", preflight.DescribeHost())

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v", missing)
			}
			return nil
		},
	}
}
