package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant/pkg/classify"
)

var (
	inboxOutput outputOptions
	inboxFilter classify.InboxFilter
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List the notes and tasks no category claims",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch inboxFilter.Kind {
		case "", classify.KindAll, classify.KindNotes, classify.KindTasks:
		default:
			return inboxOutput.HandleError(fmt.Errorf("invalid kind %q: expected all, notes or tasks", inboxFilter.Kind))
		}

		svc, err := openService(true)
		if err != nil {
			return inboxOutput.HandleError(err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		inbox, err := svc.Unassigned(ctx, inboxFilter)
		if err != nil {
			return inboxOutput.HandleError(err)
		}
		if inboxOutput.JSON {
			return inboxOutput.encode(inbox)
		}
		printInbox(inbox, svc.Config().Scheduling.DatePropertyName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
	addOutputFlag(inboxCmd, &inboxOutput)
	inboxCmd.Flags().StringVarP(&inboxFilter.Search, "search", "s", "", "Only items whose title contains this text")
	inboxCmd.Flags().StringVar(&inboxFilter.Path, "path", "", "Only items whose file path contains this text")
	inboxCmd.Flags().StringVar(&inboxFilter.Kind, "kind", classify.KindAll, "Item kind: all, notes or tasks")
}
