package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/dates"
	"github.com/aretw0/quadrant/pkg/stats"
)

// outputOptions selects between tables and JSON.
type outputOptions struct {
	JSON bool
}

func addOutputFlag(cmd *cobra.Command, o *outputOptions) {
	cmd.Flags().BoolVar(&o.JSON, "json", false, "Output as JSON.")
}

func (o *outputOptions) encode(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(color.Output, string(b))
	return err
}

// HandleError prints err as a JSON object in JSON mode.
func (o *outputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}

func titleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(color.Output, title)
	switch count {
	case 1:
		_, _ = c.Fprintf(color.Output, " - %d item\n", count)
	default:
		_, _ = c.Fprintf(color.Output, " - %d items\n", count)
	}
}

func none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(color.Output, "  none\n\n")
}

func noteRows(tbl *uitable.Table, notes []core.Note, dateProp string) {
	faint := color.New(color.Faint).SprintFunc()
	for _, n := range notes {
		due := dates.RawString(n.Properties[dateProp])
		tbl.AddRow(" ", "•", n.Name, faint(n.Path), due)
	}
}

func taskRows(tbl *uitable.Table, tasks []core.Task) {
	faint := color.New(color.Faint).SprintFunc()
	done := color.New(color.FgGreen).SprintFunc()
	for _, t := range tasks {
		box := "☐"
		text := dates.CleanTaskText(t.Text)
		if t.Completed {
			box = done("☑")
			text = faint(text)
		}
		tbl.AddRow(" ", box, text, faint(t.Key()), "")
	}
}

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	return tbl
}

func printSection(sec classify.Section, dateProp string) {
	heading := sec.Category.Title
	if sec.Category.Subtitle != "" {
		heading += " (" + sec.Category.Subtitle + ")"
	}
	titleWithCount(heading, sec.Len())
	if sec.Len() == 0 {
		none()
		return
	}
	tbl := newTable()
	noteRows(tbl, sec.Notes, dateProp)
	taskRows(tbl, sec.Tasks)
	_, _ = fmt.Fprintln(color.Output, tbl)
	_, _ = fmt.Fprintln(color.Output)
}

func printInbox(inbox classify.Inbox, dateProp string) {
	titleWithCount("Unassigned", inbox.Len())
	if inbox.Len() == 0 {
		none()
		return
	}
	tbl := newTable()
	noteRows(tbl, inbox.Notes, dateProp)
	taskRows(tbl, inbox.Tasks)
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func printSummary(s stats.Summary) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(color.Output, "Summary")

	tbl := newTable()
	tbl.AddRow("Items", s.TotalItems, "Notes", s.TotalNotes, "Tasks", s.TotalTasks)
	tbl.AddRow("Completed", s.CompletedTasks, "Overdue", colorCount(s.OverdueTasks, color.FgRed), "Today", colorCount(s.TodayTasks, color.FgYellow))
	tbl.AddRow("This week", s.WeekTasks, "Unscheduled", s.UnscheduledItems, "Recurring", s.RecurringItems)
	_, _ = fmt.Fprintln(color.Output, tbl)
	_, _ = fmt.Fprintln(color.Output)

	_, _ = bold.Fprintln(color.Output, "Metrics")
	tbl = newTable()
	tbl.AddRow("Completion rate", fmt.Sprintf("%d%%", s.CompletionRate))
	tbl.AddRow("Productivity score", s.ProductivityScore)
	tbl.AddRow("Completed this week", s.CompletedThisWeek)
	tbl.AddRow("Completed last 30 days", s.CompletedLastMonth)
	tbl.AddRow("Average daily completions", s.AvgDailyCompletions)
	tbl.AddRow("Workload balance", s.WorkloadBalance)
	tbl.AddRow("Momentum", s.Momentum)
	tbl.AddRow("Urgency index", fmt.Sprintf("%d%%", s.UrgencyIndex))
	tbl.AddRow("Focus score", s.FocusScore)
	tbl.AddRow("Velocity trend", s.VelocityTrend)
	days := "n/a"
	if s.DaysToComplete != nil {
		days = fmt.Sprintf("%d", *s.DaysToComplete)
	}
	tbl.AddRow("Days to complete", days)
	_, _ = fmt.Fprintln(color.Output, tbl)
	_, _ = fmt.Fprintln(color.Output)

	_, _ = bold.Fprintln(color.Output, "Weekly pattern")
	tbl = newTable()
	names := make([]any, 7)
	counts := make([]any, 7)
	for i, n := range s.WeeklyPattern {
		names[i] = strings.ToUpper(weekdays[i])
		counts[i] = n
	}
	tbl.AddRow(names...)
	tbl.AddRow(counts...)
	_, _ = fmt.Fprintln(color.Output, tbl)
}

var weekdays = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func colorCount(n int, attr color.Attribute) string {
	if n == 0 {
		return "0"
	}
	return color.New(attr).Sprint(n)
}

func printCategoryStats(keys []string, cfg core.Config, per map[string]stats.CategoryStats) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(color.Output, "Categories")

	tbl := newTable()
	tbl.AddRow("KEY", "TITLE", "TOTAL", "NOTES", "TASKS", "DONE", "OVERDUE", "RATE")
	for _, k := range keys {
		cs := per[k]
		tbl.AddRow(k, cfg.Sections[k].Title, cs.Total, cs.Notes, cs.Tasks, cs.Completed, colorCount(cs.Overdue, color.FgRed), fmt.Sprintf("%d%%", cs.CompletionRate))
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
	_, _ = fmt.Fprintln(color.Output)
}
