package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant/pkg/classify"
)

var (
	boardOutput  outputOptions
	boardSearch  string
	boardSection string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show every category with its notes and tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(true)
		if err != nil {
			return boardOutput.HandleError(err)
		}
		svc.SetSearch(boardSearch)

		ctx, cancel := commandContext(cmd)
		defer cancel()

		board, err := svc.Board(ctx)
		if err != nil {
			return boardOutput.HandleError(err)
		}

		keys := board.Keys()
		if boardSection != "" {
			if _, ok := board.Sections[boardSection]; !ok {
				return boardOutput.HandleError(unknownCategory(boardSection))
			}
			keys = []string{boardSection}
		}

		if boardOutput.JSON {
			out := make(map[string]classify.Section, len(keys))
			for _, k := range keys {
				out[k] = board.Sections[k]
			}
			return boardOutput.encode(out)
		}

		for _, k := range keys {
			printSection(board.Sections[k], board.Config.Scheduling.DatePropertyName)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	addOutputFlag(boardCmd, &boardOutput)
	boardCmd.Flags().StringVarP(&boardSearch, "search", "s", "", "Only show items whose title contains this text")
	boardCmd.Flags().StringVar(&boardSection, "section", "", "Only show this category key")
}
