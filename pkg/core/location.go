package core

import (
	"fmt"
	"strconv"
	"strings"
)

// TaskLocation addresses a task line inside a file.
// Text is used to re-find the line when the file shifted since it was read.
type TaskLocation struct {
	File string
	Line int
	Text string
}

func (l TaskLocation) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ParseTaskLocation parses the "file:line" form produced by TaskLocation.String.
func ParseTaskLocation(s string) (TaskLocation, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return TaskLocation{}, fmt.Errorf("invalid task location %q: expected file:line", s)
	}
	line, err := strconv.Atoi(s[idx+1:])
	if err != nil || line < 0 {
		return TaskLocation{}, fmt.Errorf("invalid task location %q: bad line number", s)
	}
	return TaskLocation{File: s[:idx], Line: line}, nil
}
