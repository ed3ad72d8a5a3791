package dates

import (
	"regexp"
	"strings"
)

const marker = `(?:📅\s*|🗓️\s*)?`

// taskDatePatterns are tried in order; the first capturing group is the date.
var taskDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(marker + `(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?)`),
	regexp.MustCompile(`(?i)` + marker + `(\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?)?)`),
	regexp.MustCompile(`(?i)` + marker + `(\d{1,2}-\d{1,2}-\d{4}(?:\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?)?)`),
}

// TaskDates extracts due dates from task text, memoizing per exact text.
// Call Reset whenever the task collection changes.
type TaskDates struct {
	cache *Cache[string, string]
}

// NewTaskDates returns an extractor memoizing up to size texts.
func NewTaskDates(size int) *TaskDates {
	return &TaskDates{cache: NewCache[string, string](size)}
}

// Extract returns the first date-looking substring of text, or "".
func (d *TaskDates) Extract(text string) string {
	if text == "" {
		return ""
	}
	if v, ok := d.cache.Get(text); ok {
		return v
	}
	found := ""
	for _, re := range taskDatePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			found = m[1]
			break
		}
	}
	d.cache.Add(text, found)
	return found
}

// Len returns the number of memoized texts.
func (d *TaskDates) Len() int {
	return d.cache.Len()
}

// Reset drops every memoized text.
func (d *TaskDates) Reset() {
	d.cache.Purge()
}

var (
	cleanDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(marker + `\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?`),
		regexp.MustCompile(`(?i)` + marker + `\d{1,2}[/-]\d{1,2}[/-]\d{4}(?:\s+\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AP]M)?)?`),
	}
	doneMarker  = regexp.MustCompile(`✅\s*`)
	inlineTag   = regexp.MustCompile(`(^|\s)#[\p{L}\p{N}_/-]+`)
	blankSpaces = regexp.MustCompile(`\s+`)
)

// CleanTaskText returns the display title of a task: dates (with their
// calendar markers), done markers and inline #tags removed, whitespace
// collapsed.
func CleanTaskText(text string) string {
	for _, re := range cleanDatePatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = doneMarker.ReplaceAllString(text, "")
	text = inlineTag.ReplaceAllString(text, "$1")
	return strings.TrimSpace(blankSpaces.ReplaceAllString(text, " "))
}
