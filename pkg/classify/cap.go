package classify

import "math"

// Allot splits maxItems between nNotes and nTasks.
//
// When the total fits (or maxItems <= 0) both kinds keep everything. A lone
// kind gets the full limit. Otherwise the limit is shared by each kind's
// proportion of the total, rounded half-up for notes, with at least one slot
// per kind when maxItems >= 2. With a single slot the larger kind takes it
// (notes on a tie).
func Allot(nNotes, nTasks, maxItems int) (notesLimit, tasksLimit int) {
	total := nNotes + nTasks
	if maxItems <= 0 || total <= maxItems {
		return nNotes, nTasks
	}
	switch {
	case nTasks == 0:
		return min(nNotes, maxItems), 0
	case nNotes == 0:
		return 0, min(nTasks, maxItems)
	case maxItems == 1:
		if nNotes >= nTasks {
			return 1, 0
		}
		return 0, 1
	}

	ratio := float64(nNotes) / float64(total)
	notesLimit = int(math.Floor(float64(maxItems)*ratio + 0.5))
	notesLimit = max(1, min(notesLimit, maxItems-1))
	tasksLimit = maxItems - notesLimit

	return min(nNotes, notesLimit), min(nTasks, tasksLimit)
}

// Cap truncates notes and tasks to the shares computed by Allot.
func Cap[N, T any](notes []N, tasks []T, maxItems int) ([]N, []T) {
	nl, tl := Allot(len(notes), len(tasks), maxItems)
	return notes[:nl], tasks[:tl]
}
