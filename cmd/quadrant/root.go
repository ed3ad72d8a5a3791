package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant"
)

var (
	verbose   bool
	vaultPath string
	readOnly  bool
	noGit     bool
	timeout   time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quadrant",
	Short: "A priority matrix over a vault of Markdown notes and tasks",
	Long: `Quadrant sorts the notes and tasks of a Markdown vault into the categories
of a priority matrix (Do First, Schedule, Delegate, Don't Do by default).

Notes are assigned through a frontmatter property, tasks through an inline
#tag. Moving an item between categories edits the file in place.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory (default: nearest vault root above the working directory)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Never write to the vault")
	rootCmd.PersistentFlags().BoolVar(&noGit, "no-git", false, "Do not commit changes even if the vault is a git repository")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Abort file operations after this long")
}

// openService builds the dashboard for the selected vault.
func openService(forceReadOnly bool) (*quadrant.Service, error) {
	path := vaultPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting working directory: %w", err)
		}
		path = wd
		if root, err := quadrant.FindVaultRoot(wd); err == nil {
			path = root
		}
	}

	opts := []quadrant.Option{
		quadrant.WithLogger(slog.Default()),
		quadrant.WithMustExist(true),
		quadrant.WithReadOnly(readOnly || forceReadOnly),
	}
	if noGit {
		opts = append(opts, quadrant.WithVersioning(false))
	}
	return quadrant.New(path, opts...)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
