package classify

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aretw0/quadrant/pkg/core"
)

// sortKey is what the comparators need to know about an item.
type sortKey struct {
	name string
	date string
}

func (e *Engine) sortNotes(notes []core.Note, q query) {
	sortStable(notes, func(n core.Note) sortKey {
		return sortKey{name: n.Name, date: e.noteDate(n, q.dateProp)}
	}, e.comparator(q.sortBy))
}

func (e *Engine) sortTasks(tasks []core.Task, q query) {
	sortStable(tasks, func(t core.Task) sortKey {
		return sortKey{name: t.Text, date: e.TaskDate(t)}
	}, e.comparator(q.sortBy))
}

func sortStable[T any](items []T, key func(T) sortKey, compare func(a, b sortKey) int) {
	type keyed struct {
		item T
		key  sortKey
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		ks[i] = keyed{item: it, key: key(it)}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return compare(a.key, b.key)
	})
	for i := range ks {
		items[i] = ks[i].item
	}
}

// comparator returns the ordering for a sort mode. Unknown modes sort by
// priority.
func (e *Engine) comparator(sortBy string) func(a, b sortKey) int {
	switch sortBy {
	case core.SortName:
		col := collate.New(language.Und)
		return func(a, b sortKey) int {
			return col.CompareString(a.name, b.name)
		}

	case core.SortDate:
		return func(a, b sortKey) int {
			ta, okA := e.dates.Parse(a.date)
			tb, okB := e.dates.Parse(b.date)
			switch {
			case !okA && !okB:
				return 0
			case !okA:
				return 1
			case !okB:
				return -1
			}
			return ta.Compare(tb)
		}
	}

	return func(a, b sortKey) int {
		// Overdue first.
		return cmp.Compare(rank(e.dates.IsOverdue(a.date)), rank(e.dates.IsOverdue(b.date)))
	}
}

func rank(overdue bool) int {
	if overdue {
		return 0
	}
	return 1
}
