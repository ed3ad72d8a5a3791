package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant"
)

var unassignCmd = &cobra.Command{
	Use:   "unassign <note.md>...",
	Short: "Remove notes from every category",
	Long: `Unassign removes the category properties and the scheduling properties
(due date, recurrence) from the frontmatter of each note.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		for _, path := range args {
			reason := quadrant.FormatChangeReason(quadrant.ChangeTypeChore, "inbox", "unassign "+path, "")
			if err := svc.Unassign(quadrant.WithChangeReason(ctx, reason), path); err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "%s %s unassigned\n", color.GreenString("✓"), path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unassignCmd)
}
