package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of quadrant",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quadrant version %s\n", strings.TrimSpace(quadrant.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
