package main

import (
	"github.com/spf13/cobra"
)

var statsOutput outputOptions

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-category counters and productivity metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(true)
		if err != nil {
			return statsOutput.HandleError(err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		board, snap, err := svc.Snapshot(ctx)
		if err != nil {
			return statsOutput.HandleError(err)
		}
		if statsOutput.JSON {
			return statsOutput.encode(snap)
		}

		printCategoryStats(board.Keys(), board.Config, snap.PerCategory)
		printSummary(snap.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addOutputFlag(statsCmd, &statsOutput)
}
