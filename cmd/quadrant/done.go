package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant"
)

var undo bool

var doneCmd = &cobra.Command{
	Use:   "done <file.md:line>...",
	Short: "Mark tasks as completed",
	Long: `Done checks the task boxes and appends a ✅ done date.
With --undo the boxes are cleared and the done date removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel := parseItems(args)
		if len(sel.Notes) > 0 {
			return fmt.Errorf("not a task location: %s (expected file.md:line)", sel.Notes[0])
		}

		svc, err := openService(false)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		verb := "complete"
		if undo {
			verb = "reopen"
		}
		for _, loc := range sel.Tasks {
			reason := quadrant.FormatChangeReason(quadrant.ChangeTypeChore, "tasks", verb+" "+loc.String(), "")
			if err := svc.ToggleTask(quadrant.WithChangeReason(ctx, reason), loc, !undo); err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "%s %s %sd\n", color.GreenString("✓"), loc, verb)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
	doneCmd.Flags().BoolVar(&undo, "undo", false, "Mark the tasks as not completed")
}
