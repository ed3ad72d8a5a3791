// Package stats derives productivity metrics from a classification result.
package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/quadrant/pkg/classify"
	"github.com/aretw0/quadrant/pkg/core"
	"github.com/aretw0/quadrant/pkg/dates"
	"github.com/aretw0/quadrant/pkg/fields"
)

// CategoryStats are the counters of one category.
type CategoryStats struct {
	Total          int `json:"total"`
	Notes          int `json:"notes"`
	Tasks          int `json:"tasks"`
	Completed      int `json:"completed"`
	Overdue        int `json:"overdue"`
	Today          int `json:"today"`
	Week           int `json:"week"`
	Unscheduled    int `json:"unscheduled"`
	Recurring      int `json:"recurring"`
	CompletionRate int `json:"completionRate"`
}

// HeatCell counts dated items falling on a weekday and hour.
type HeatCell struct {
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
	Count   int          `json:"count"`
}

// DateCount counts dated items on a calendar day (YYYY-MM-DD).
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary aggregates every category.
type Summary struct {
	TotalItems       int `json:"totalItems"`
	TotalNotes       int `json:"totalNotes"`
	TotalTasks       int `json:"totalTasks"`
	CompletedTasks   int `json:"completedTasks"`
	OverdueTasks     int `json:"overdueTasks"`
	TodayTasks       int `json:"todayTasks"`
	WeekTasks        int `json:"weekTasks"`
	UnscheduledItems int `json:"unscheduledItems"`
	RecurringItems   int `json:"recurringItems"`

	CompletionRate      int     `json:"completionRate"`
	ProductivityScore   int     `json:"productivityScore"`
	CompletedThisWeek   int     `json:"completedThisWeek"`
	CompletedLastMonth  int     `json:"completedLastMonth"`
	AvgDailyCompletions float64 `json:"avgDailyCompletions"`
	WorkloadBalance     float64 `json:"workloadBalance"`
	Momentum            float64 `json:"momentum"`
	UrgencyIndex        int     `json:"urgencyIndex"`
	FocusScore          float64 `json:"focusScore"`
	DaysToComplete      *int    `json:"daysToComplete"` // nil when there is no completion velocity
	VelocityTrend       float64 `json:"velocityTrend"`

	TasksByDate        []DateCount    `json:"tasksByDate"`
	ActivityHeatMap    []HeatCell     `json:"activityHeatMap"`
	WeeklyPattern      [7]int         `json:"weeklyPattern"` // Sunday first
	QuadrantBalance    map[string]int `json:"quadrantBalance"`
	QuadrantEfficiency map[string]int `json:"quadrantEfficiency"`
}

// Snapshot is the full statistics output.
type Snapshot struct {
	PerCategory map[string]CategoryStats `json:"perCategory"`
	Summary     Summary                  `json:"summary"`
}

// Priority weights by semantic role, used by the focus score.
var roleWeights = map[string]float64{
	"urgent_important":         4,
	"not_urgent_important":     3,
	"urgent_not_important":     2,
	"not_urgent_not_important": 1,
}

const defaultWeight = 2.5

// Config holds the collaborators of an Engine.
type Config struct {
	Dates     *dates.Parser
	TaskDates *dates.TaskDates
}

// Engine computes snapshots.
type Engine struct {
	dates     *dates.Parser
	taskDates *dates.TaskDates
}

// New creates an Engine. Missing collaborators get fresh defaults.
func New(config Config) *Engine {
	e := &Engine{dates: config.Dates, taskDates: config.TaskDates}
	if e.dates == nil {
		e.dates = dates.NewParser()
	}
	if e.taskDates == nil {
		e.taskDates = dates.NewTaskDates(dates.TaskDateCacheSize)
	}
	return e
}

type heatKey struct {
	day  time.Weekday
	hour int
}

// accumulator collects the cross-category state of one Compute pass.
type accumulator struct {
	sum         Summary
	byDate      map[string]int
	heat        map[heatKey]int
	completions []time.Time
}

func (a *accumulator) dated(t time.Time, day string) {
	a.byDate[day]++
	a.heat[heatKey{day: t.Weekday(), hour: t.Hour()}]++
	a.sum.WeeklyPattern[t.Weekday()]++
}

// Compute derives the per-category and summary metrics of res.
func (e *Engine) Compute(res classify.Result, cfg core.Config) Snapshot {
	sched := cfg.Scheduling
	acc := &accumulator{
		byDate: make(map[string]int),
		heat:   make(map[heatKey]int),
	}
	acc.sum.QuadrantBalance = make(map[string]int, len(res))
	acc.sum.QuadrantEfficiency = make(map[string]int, len(res))
	per := make(map[string]CategoryStats, len(res))

	keys := res.Keys()
	for _, key := range keys {
		sec := res[key]
		cs := e.section(sec, sched, acc)
		per[key] = cs

		acc.sum.QuadrantBalance[key] = cs.Total
		acc.sum.QuadrantEfficiency[key] = cs.CompletionRate
		acc.sum.TotalItems += cs.Total
		acc.sum.TotalNotes += cs.Notes
		acc.sum.TotalTasks += cs.Tasks
		acc.sum.CompletedTasks += cs.Completed
		acc.sum.OverdueTasks += cs.Overdue
		acc.sum.TodayTasks += cs.Today
		acc.sum.WeekTasks += cs.Week
		acc.sum.UnscheduledItems += cs.Unscheduled
		acc.sum.RecurringItems += cs.Recurring
	}

	e.derive(acc, res, keys)
	return Snapshot{PerCategory: per, Summary: acc.sum}
}

func (e *Engine) section(sec classify.Section, sched core.Scheduling, acc *accumulator) CategoryStats {
	cs := CategoryStats{
		Total: sec.Len(),
		Notes: len(sec.Notes),
		Tasks: len(sec.Tasks),
	}

	for _, t := range sec.Tasks {
		if t.Completed {
			cs.Completed++
			if t.CompletedAt != nil {
				acc.completions = append(acc.completions, *t.CompletedAt)
			}
		}
		if !e.count(e.taskDates.Extract(t.Text), &cs, acc) && !t.Completed {
			cs.Unscheduled++
		}
	}

	for _, n := range sec.Notes {
		raw := dates.RawString(fields.ExtractPropertyValue(n.Properties[sched.DatePropertyName]))
		if !e.count(raw, &cs, acc) {
			cs.Unscheduled++
		}
		if fields.Truthy(fields.ExtractPropertyValue(n.Properties[sched.RecurringPropertyName])) {
			cs.Recurring++
		}
	}

	cs.CompletionRate = percent(cs.Completed, cs.Tasks)
	return cs
}

// count bumps the date counters for raw and reports whether it resolved.
func (e *Engine) count(raw string, cs *CategoryStats, acc *accumulator) bool {
	t, ok := e.dates.Parse(raw)
	if !ok {
		return false
	}
	t = t.In(e.dates.Location())
	acc.dated(t, t.Format("2006-01-02"))
	if e.dates.IsOverdue(raw) {
		cs.Overdue++
	}
	if e.dates.IsToday(raw) {
		cs.Today++
	}
	if e.dates.IsThisWeek(raw) {
		cs.Week++
	}
	return true
}

func (e *Engine) derive(acc *accumulator, res classify.Result, keys []string) {
	s := &acc.sum
	now := e.dates.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)
	for _, d := range acc.completions {
		if d.After(now) {
			continue
		}
		if !d.Before(weekAgo) {
			s.CompletedThisWeek++
		}
		if !d.Before(monthAgo) {
			s.CompletedLastMonth++
		}
	}

	s.CompletionRate = percent(s.CompletedTasks, s.TotalTasks)
	s.ProductivityScore = roundInt(100 - float64(s.OverdueTasks)/float64(max(s.TotalTasks, 1))*100)
	s.UrgencyIndex = roundInt(float64(s.OverdueTasks+s.TodayTasks) / float64(max(s.TotalItems, 1)) * 100)

	avgDaily := float64(s.CompletedThisWeek) / 7
	s.AvgDailyCompletions = roundTo(avgDaily, 1)
	if avgDaily > 0 {
		days := int(math.Ceil(float64((s.TotalTasks-s.CompletedTasks)*7) / float64(s.CompletedThisWeek)))
		s.DaysToComplete = &days
	}

	s.WorkloadBalance = WorkloadBalance(s.QuadrantBalance)

	recentRate := float64(s.CompletedThisWeek) / float64(max(s.WeekTasks, 1))
	monthlyRate := float64(s.CompletedLastMonth) / float64(max(s.TotalTasks, 1))
	s.Momentum = roundTo((recentRate-monthlyRate)*100, 1)

	if s.CompletedThisWeek > 0 {
		w := float64(s.CompletedThisWeek)
		s.VelocityTrend = roundTo((w-float64(s.CompletedLastMonth)/4)/w*100, 1)
	}

	var weighted float64
	for _, k := range keys {
		weighted += weightOf(res[k].Category) * float64(s.QuadrantBalance[k])
	}
	s.FocusScore = roundTo(weighted/float64(max(s.TotalItems, 1)), 2)

	s.TasksByDate = make([]DateCount, 0, len(acc.byDate))
	for d, n := range acc.byDate {
		s.TasksByDate = append(s.TasksByDate, DateCount{Date: d, Count: n})
	}
	slices.SortFunc(s.TasksByDate, func(a, b DateCount) int {
		return strings.Compare(a.Date, b.Date)
	})

	s.ActivityHeatMap = make([]HeatCell, 0, len(acc.heat))
	for k, n := range acc.heat {
		s.ActivityHeatMap = append(s.ActivityHeatMap, HeatCell{Weekday: k.day, Hour: k.hour, Count: n})
	}
	slices.SortFunc(s.ActivityHeatMap, func(a, b HeatCell) int {
		if a.Weekday != b.Weekday {
			return int(a.Weekday) - int(b.Weekday)
		}
		return a.Hour - b.Hour
	})
}

// WorkloadBalance returns 1 - Σ|size - mean| / (2 * total), rounded to two
// decimals. It is 1 for an even spread and for an empty board.
func WorkloadBalance(sizes map[string]int) float64 {
	total := 0
	for _, n := range sizes {
		total += n
	}
	if total == 0 || len(sizes) == 0 {
		return 1
	}
	mean := float64(total) / float64(len(sizes))
	var dev float64
	for _, n := range sizes {
		dev += math.Abs(float64(n) - mean)
	}
	return roundTo(1-dev/(2*float64(total)), 2)
}

func weightOf(c core.Category) float64 {
	if w, ok := roleWeights[c.Key]; ok {
		return w
	}
	if w, ok := roleWeights[c.PropertyRule.PropertyValue]; ok {
		return w
	}
	return defaultWeight
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return roundInt(float64(part) / float64(whole) * 100)
}

func roundInt(x float64) int {
	return int(math.Floor(x + 0.5))
}

func roundTo(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Floor(x*p+0.5) / p
}
