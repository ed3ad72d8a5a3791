package fs

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	taskLine  = regexp.MustCompile(`^(\s*[-*+] \[)(.)(\] )(.*)$`)
	taskTag   = regexp.MustCompile(`(?:^|\s)(#[\p{L}\p{N}_/-]+)`)
	doneStamp = regexp.MustCompile(`\s*✅\s*(\d{4}-\d{2}-\d{2})`)
	fence     = regexp.MustCompile("^\\s*(```|~~~)")
)

// parsedTask is a checklist line as found in a file.
type parsedTask struct {
	Line        int        `json:"line"`
	Text        string     `json:"text"`
	Status      string     `json:"status"`
	Tags        []string   `json:"tags"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (t parsedTask) Completed() bool {
	return t.Status == "x" || t.Status == "X"
}

// parseTasks scans a Markdown file for checklist lines, skipping the
// frontmatter and fenced code blocks. Line numbers are 0-based file lines.
func parseTasks(data []byte, loc *time.Location) []parsedTask {
	lines := strings.Split(string(data), "\n")
	start := 0
	if bytes.HasPrefix(data, delimLF) || bytes.HasPrefix(data, delimCRLF) {
		for i := 1; i < len(lines); i++ {
			if strings.TrimRight(lines[i], "\r") == "---" {
				start = i + 1
				break
			}
		}
	}

	var tasks []parsedTask
	inFence := false
	for i := start; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if fence.MatchString(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := taskLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t := parsedTask{
			Line:   i,
			Text:   strings.TrimSpace(m[4]),
			Status: m[2],
			Tags:   []string{},
		}
		for _, tm := range taskTag.FindAllStringSubmatch(t.Text, -1) {
			t.Tags = append(t.Tags, tm[1])
		}
		if dm := doneStamp.FindStringSubmatch(t.Text); dm != nil {
			if d, err := time.ParseInLocation("2006-01-02", dm[1], loc); err == nil {
				t.CompletedAt = &d
			}
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// rewriteTaskLine returns line with its checkbox marker and text replaced.
func rewriteTaskLine(line, status, text string) string {
	m := taskLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return line
	}
	out := m[1] + status + m[3] + text
	if strings.HasSuffix(line, "\r") {
		out += "\r"
	}
	return out
}

// setDoneStamp appends or strips the "✅ YYYY-MM-DD" completion marker.
func setDoneStamp(text string, completed bool, on time.Time) string {
	text = strings.TrimRight(doneStamp.ReplaceAllString(text, ""), " ")
	if completed {
		text += " ✅ " + on.Format("2006-01-02")
	}
	return text
}

// retag strips every known tag (case-insensitive) and newTag itself from
// text, then appends newTag once. The rest of the line is kept as is.
func retag(text string, known []string, newTag string) string {
	newTag = strings.TrimPrefix(newTag, "#")
	strip := append(slices.Clone(known), newTag)

	var b strings.Builder
	last := 0
	for _, m := range taskTag.FindAllStringSubmatchIndex(text, -1) {
		if !isTag(text[m[2]+1:m[3]], strip) {
			continue
		}
		end := m[3]
		for end < len(text) && strings.IndexByte(tagTrailer, text[end]) >= 0 {
			end++
		}
		b.WriteString(text[last:m[0]])
		last = end
	}
	b.WriteString(text[last:])

	out := strings.TrimSpace(b.String())
	if newTag != "" {
		out += " #" + newTag
	}
	return strings.TrimSpace(out)
}

// tagTrailer is the punctuation removed along with a stripped tag.
const tagTrailer = ".,;:!?)"

func isTag(label string, tags []string) bool {
	for _, t := range tags {
		if t != "" && strings.EqualFold(label, strings.TrimPrefix(t, "#")) {
			return true
		}
	}
	return false
}
