package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	lcadapter "github.com/aretw0/quadrant/pkg/adapters/lifecycle"
	"github.com/aretw0/quadrant/pkg/core"
)

var (
	watchOnly   []string
	metricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow vault changes and print the category counts after each one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(true)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if metricsAddr != "" {
			addr, err := serveMetrics(ctx, metricsAddr)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "serving metrics on http://%s/metrics\n", addr)
		}

		events, err := svc.Watch(ctx)
		if err != nil {
			return err
		}
		var types []core.EventType
		for _, t := range watchOnly {
			types = append(types, core.EventType(strings.ToUpper(t)))
		}
		source := lcadapter.NewSource(events, types...)
		if err := source.Start(ctx); err != nil {
			return err
		}

		faint := color.New(color.Faint).SprintFunc()
		report := func() {
			qctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			board, err := svc.Board(qctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
				return
			}
			line := ""
			for _, k := range board.Keys() {
				line += fmt.Sprintf("%s=%d ", k, board.Sections[k].Len())
			}
			fmt.Fprintf(color.Output, "%s %s\n", faint(time.Now().Format("15:04:05")), line)
		}

		report()
		for e := range source.Events() {
			fmt.Fprintln(color.Output, color.CyanString(e.String()))
			report()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Only react to these change types (create, modify, delete)")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. localhost:9090)")
}
