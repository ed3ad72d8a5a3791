package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/quadrant"
	"github.com/aretw0/quadrant/pkg/core"
)

// parseItems splits arguments into note paths and task locations.
// "file.md:12" addresses the task on line 12; anything else is a note.
func parseItems(args []string) quadrant.Selection {
	var sel quadrant.Selection
	for _, arg := range args {
		if loc, ok := parseTask(arg); ok {
			sel.Tasks = append(sel.Tasks, loc)
			continue
		}
		sel.Notes = append(sel.Notes, arg)
	}
	return sel
}

func parseTask(arg string) (core.TaskLocation, bool) {
	idx := strings.LastIndex(arg, ":")
	if idx <= 0 {
		return core.TaskLocation{}, false
	}
	if _, err := strconv.Atoi(arg[idx+1:]); err != nil {
		return core.TaskLocation{}, false
	}
	loc, err := core.ParseTaskLocation(arg)
	if err != nil {
		return core.TaskLocation{}, false
	}
	return loc, true
}

func unknownCategory(key string) error {
	return fmt.Errorf("%w: %s (see 'quadrant sections')", core.ErrUnknownCategory, key)
}
