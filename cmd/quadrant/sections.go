package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sectionsOutput outputOptions

var sectionsCmd = &cobra.Command{
	Use:     "sections",
	Aliases: []string{"categories"},
	Short:   "List the categories and their rules",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(true)
		if err != nil {
			return sectionsOutput.HandleError(err)
		}
		cfg := svc.Config()
		if sectionsOutput.JSON {
			return sectionsOutput.encode(cfg.Sections)
		}

		tbl := newTable()
		tbl.AddRow("KEY", "TITLE", "POSITION", "PROPERTY", "TAG")
		faint := color.New(color.Faint).SprintFunc()
		for _, k := range cfg.SectionKeys() {
			s := cfg.Sections[k]
			prop := faint("off")
			if s.PropertyRule.Enabled {
				prop = s.PropertyRule.PropertyName + ": " + s.PropertyRule.PropertyValue
			}
			tag := faint("off")
			if s.TaskRule.Enabled {
				tag = "#" + s.TaskRule.TagName
			}
			tbl.AddRow(k, s.Title, fmt.Sprintf("%d,%d", s.Position.Row, s.Position.Col), prop, tag)
		}
		_, _ = fmt.Fprintln(color.Output, tbl)
		return nil
	},
}

var sectionsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category with rules derived from its name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		key, err := svc.AddCategory(ctx, args[0])
		if err != nil {
			return err
		}
		s, _ := svc.Config().Section(key)
		fmt.Fprintf(color.Output, "%s added %s (%s: %s, #%s)\n", color.GreenString("✓"), key,
			s.PropertyRule.PropertyName, s.PropertyRule.PropertyValue, s.TaskRule.TagName)
		return nil
	},
}

var sectionsRemoveCmd = &cobra.Command{
	Use:     "rm <key>",
	Aliases: []string{"remove"},
	Short:   "Delete a category; its items become unassigned",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(false)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := svc.RemoveCategory(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(color.Output, "%s removed %s\n", color.GreenString("✓"), args[0])
		return nil
	},
}

var sectionsMoveCmd = &cobra.Command{
	Use:   "pos <key> <row> <col>",
	Short: "Place a category on the matrix grid",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid row %q: %w", args[1], err)
		}
		col, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid column %q: %w", args[2], err)
		}

		svc, err := openService(false)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		return svc.SetCategoryPosition(ctx, args[0], row, col)
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
	addOutputFlag(sectionsCmd, &sectionsOutput)
	sectionsCmd.AddCommand(sectionsAddCmd, sectionsRemoveCmd, sectionsMoveCmd)
}
