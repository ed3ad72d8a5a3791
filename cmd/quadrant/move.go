package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant"
)

var moveMessage string

var moveCmd = &cobra.Command{
	Use:   "move <category> <note.md | file.md:line>...",
	Short: "Assign notes and tasks to a category",
	Long: `Move assigns items to a category by editing their files.

A note gets the category's frontmatter property; a task line gets the
category's #tag in place of any other category tag. Tasks are addressed as
file.md:line, with 0-based line numbers as shown by 'quadrant board'.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		sel := parseItems(args[1:])

		svc, err := openService(false)
		if err != nil {
			return err
		}
		if _, ok := svc.Config().Section(key); !ok {
			return unknownCategory(key)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		msg := moveMessage
		if msg == "" {
			msg = quadrant.FormatChangeReason(quadrant.ChangeTypeChore, key, fmt.Sprintf("move %d item(s)", sel.Len()), "")
		}
		ctx = quadrant.WithChangeReason(ctx, quadrant.AppendFooter(msg))

		switch {
		case len(sel.Notes) == 1 && len(sel.Tasks) == 0:
			err = svc.MoveNote(ctx, sel.Notes[0], key)
		case len(sel.Tasks) == 1 && len(sel.Notes) == 0:
			err = svc.MoveTask(ctx, sel.Tasks[0], key)
		default:
			var moved int
			moved, err = svc.BulkMove(ctx, sel, key)
			slog.Debug("bulk move", "moved", moved, "selected", sel.Len())
			if moved > 0 {
				fmt.Fprintf(color.Output, "%s moved %d of %d items to %s\n", color.GreenString("✓"), moved, sel.Len(), key)
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(color.Output, "%s moved to %s\n", color.GreenString("✓"), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVarP(&moveMessage, "message", "m", "", "Commit message for versioned vaults")
}
