package core

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sort modes.
const (
	SortPriority = "priority"
	SortDate     = "date"
	SortName     = "name"
)

// Advanced filter modes.
const (
	FilterAll       = "all"
	FilterOverdue   = "overdue"
	FilterToday     = "today"
	FilterWeek      = "week"
	FilterCompleted = "completed"
	FilterPending   = "pending"
)

// DefaultMaxItemsPerSection is the starter cap per category.
const DefaultMaxItemsPerSection = 10

// Position places a category on the matrix grid.
type Position struct {
	Row int `json:"row" validate:"gte=0"`
	Col int `json:"col" validate:"gte=0"`
}

// PropertyRule matches notes whose frontmatter property equals a value.
type PropertyRule struct {
	Enabled       bool   `json:"enabled"`
	PropertyName  string `json:"propertyName" validate:"required_if=Enabled true"`
	PropertyValue string `json:"propertyValue"`
}

// TaskRule matches tasks carrying a tag.
type TaskRule struct {
	Enabled bool   `json:"enabled"`
	TagName string `json:"tagName" validate:"required_if=Enabled true"`
}

// Category is a user-configured bucket ("quadrant", "section").
// It owns no items; membership is recomputed on every classification.
type Category struct {
	Key          string       `json:"-"`
	Title        string       `json:"title" validate:"required"`
	Subtitle     string       `json:"subtitle"`
	Description  string       `json:"description"`
	Color        string       `json:"color"`
	Position     Position     `json:"position"`
	PropertyRule PropertyRule `json:"propertyRules"`
	TaskRule     TaskRule     `json:"taskRules"`
}

// Display holds the display flags and modes that drive classification.
type Display struct {
	ShowTasks          bool   `json:"showTasks"`
	ShowNotes          bool   `json:"showNotes"`
	ShowCompleted      bool   `json:"showCompleted"`
	ViewMode           string `json:"viewMode" validate:"omitempty,oneof=matrix list merged"`
	SortBy             string `json:"sortBy" validate:"omitempty,oneof=priority date name created modified"`
	FilterBy           string `json:"filterBy" validate:"omitempty,oneof=all overdue today week completed pending"`
	MaxItemsPerSection int    `json:"maxItemsPerSection" validate:"gte=0"`
	CompactMode        bool   `json:"compactMode"`
	ShowDescriptions   bool   `json:"showDescriptions"`
	EnableAnimations   bool   `json:"enableAnimations"`
	ShowMetrics        bool   `json:"showMetrics"`
}

// Scheduling names the frontmatter properties used for dates and recurrence.
type Scheduling struct {
	DatePropertyName      string `json:"datePropertyName" validate:"required"`
	RecurringPropertyName string `json:"recurringPropertyName" validate:"required"`
	EnableScheduling      bool   `json:"enableScheduling"`
	EnableRecurring       bool   `json:"enableRecurring"`
}

// UI holds presentation state that survives restarts.
// SearchQuery is transient and never persisted.
type UI struct {
	Title                string `json:"title"`
	ActiveTab            string `json:"activeTab"`
	ContainerMaxWidth    int    `json:"containerMaxWidth"`
	ShowNotifications    bool   `json:"showNotifications"`
	NotificationPosition string `json:"notificationPosition"`
	SearchQuery          string `json:"searchQuery"`
}

// Config is the persisted configuration document.
type Config struct {
	Sections        map[string]Category `json:"sections" validate:"required,min=1,dive"`
	Display         Display             `json:"display"`
	Scheduling      Scheduling          `json:"scheduling"`
	ExcludedFolders []string            `json:"excludedFolders" validate:"dive,required"`
	UI              UI                  `json:"ui"`
}

var configValidate = validator.New()

// DefaultConfig returns the four-quadrant starter configuration.
func DefaultConfig() Config {
	sections := map[string]Category{
		"doFirst": {
			Title:        "Do First",
			Subtitle:     "Urgent & Important",
			Description:  "Crisis situations, urgent problems, deadline-driven projects",
			Color:        "#ff4757",
			Position:     Position{Row: 0, Col: 0},
			PropertyRule: PropertyRule{Enabled: true, PropertyName: "eisenhower_status", PropertyValue: "urgent_important"},
			TaskRule:     TaskRule{Enabled: true, TagName: "urgent-important"},
		},
		"schedule": {
			Title:        "Schedule",
			Subtitle:     "Not Urgent & Important",
			Description:  "Strategic planning, personal development, prevention activities",
			Color:        "#ffa502",
			Position:     Position{Row: 0, Col: 1},
			PropertyRule: PropertyRule{Enabled: true, PropertyName: "eisenhower_status", PropertyValue: "not_urgent_important"},
			TaskRule:     TaskRule{Enabled: true, TagName: "schedule"},
		},
		"delegate": {
			Title:        "Delegate",
			Subtitle:     "Urgent & Not Important",
			Description:  "Interruptions, some emails, some phone calls, some meetings",
			Color:        "#2ed573",
			Position:     Position{Row: 1, Col: 0},
			PropertyRule: PropertyRule{Enabled: true, PropertyName: "eisenhower_status", PropertyValue: "urgent_not_important"},
			TaskRule:     TaskRule{Enabled: true, TagName: "delegate"},
		},
		"eliminate": {
			Title:        "Don't Do",
			Subtitle:     "Not Urgent & Not Important",
			Description:  "Time wasters, trivia, busy work, some emails, some phone calls",
			Color:        "#747d8c",
			Position:     Position{Row: 1, Col: 1},
			PropertyRule: PropertyRule{Enabled: true, PropertyName: "eisenhower_status", PropertyValue: "not_urgent_not_important"},
			TaskRule:     TaskRule{Enabled: true, TagName: "eliminate"},
		},
	}
	for k, s := range sections {
		s.Key = k
		sections[k] = s
	}

	return Config{
		Sections: sections,
		Display: Display{
			ShowTasks:          true,
			ShowNotes:          true,
			ShowCompleted:      true,
			ViewMode:           "matrix",
			SortBy:             SortPriority,
			FilterBy:           FilterAll,
			MaxItemsPerSection: DefaultMaxItemsPerSection,
			EnableAnimations:   true,
			ShowMetrics:        true,
		},
		Scheduling: Scheduling{
			DatePropertyName:      "due_date",
			RecurringPropertyName: "recurring",
			EnableScheduling:      true,
			EnableRecurring:       true,
		},
		ExcludedFolders: []string{"templates", "archive", ".obsidian"},
		UI: UI{
			Title:                "Priority Matrix",
			ActiveTab:            "sections",
			ContainerMaxWidth:    1200,
			ShowNotifications:    true,
			NotificationPosition: "top-right",
		},
	}
}

// Validate checks the document against its struct constraints.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Clone returns a deep copy safe to mutate.
func (c Config) Clone() Config {
	out := c
	out.Sections = make(map[string]Category, len(c.Sections))
	for k, s := range c.Sections {
		s.Key = k
		out.Sections[k] = s
	}
	out.ExcludedFolders = slices.Clone(c.ExcludedFolders)
	return out
}

// SectionKeys returns the category keys in grid order (row, col, key).
func (c Config) SectionKeys() []string {
	keys := make([]string, 0, len(c.Sections))
	for k := range c.Sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := c.Sections[keys[i]].Position, c.Sections[keys[j]].Position
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Section returns the category stored under key with its Key populated.
func (c Config) Section(key string) (Category, bool) {
	s, ok := c.Sections[key]
	if !ok {
		return Category{}, false
	}
	s.Key = key
	return s, true
}

// KnownTags returns the tag names of every enabled task rule.
func (c Config) KnownTags() []string {
	var tags []string
	for _, k := range c.SectionKeys() {
		r := c.Sections[k].TaskRule
		if r.Enabled && r.TagName != "" && !slices.Contains(tags, r.TagName) {
			tags = append(tags, r.TagName)
		}
	}
	return tags
}

// AssignmentProperties returns the properties cleared when a note is unassigned:
// the scheduling properties plus every enabled property rule name.
func (c Config) AssignmentProperties() []string {
	names := []string{c.Scheduling.DatePropertyName, c.Scheduling.RecurringPropertyName}
	for _, k := range c.SectionKeys() {
		r := c.Sections[k].PropertyRule
		if r.Enabled && r.PropertyName != "" && !slices.Contains(names, r.PropertyName) {
			names = append(names, r.PropertyName)
		}
	}
	return names
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]`)

// AddCategory appends a new category derived from name and returns its key.
// Rules default to "<slug>_status: <slug>" for notes and "#<slug>" for tasks.
func (c *Config) AddCategory(name string, now time.Time) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: category name is empty", ErrInvalidConfig)
	}
	if c.Sections == nil {
		c.Sections = make(map[string]Category)
	}

	slug := nonSlug.ReplaceAllString(strings.ToLower(name), "_")
	key := fmt.Sprintf("%s_%d", slug, now.UnixMilli())

	maxRow := 0
	for _, s := range c.Sections {
		maxRow = max(maxRow, s.Position.Row)
	}

	c.Sections[key] = Category{
		Key:          key,
		Title:        name,
		Subtitle:     "New Quadrant",
		Description:  "Configure this quadrant's rules",
		Color:        colorFor(name),
		Position:     Position{Row: maxRow + 1, Col: 0},
		PropertyRule: PropertyRule{Enabled: true, PropertyName: slug + "_status", PropertyValue: slug},
		TaskRule:     TaskRule{Enabled: true, TagName: slug},
	}
	return key, nil
}

// RemoveCategory deletes a category. At least one category always remains.
func (c *Config) RemoveCategory(key string) error {
	if _, ok := c.Sections[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}
	if len(c.Sections) <= 1 {
		return ErrLastCategory
	}
	delete(c.Sections, key)
	return nil
}

// SetCategoryPosition moves a category on the grid. Negative values clamp to 0.
func (c *Config) SetCategoryPosition(key string, row, col int) error {
	s, ok := c.Sections[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}
	s.Position = Position{Row: max(0, row), Col: max(0, col)}
	c.Sections[key] = s
	return nil
}

func colorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}
