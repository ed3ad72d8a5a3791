// Package dates parses the loosely formatted dates found in note properties
// and task lines, and classifies them relative to "today".
//
// Parsing never fails loudly: anything unparseable resolves to (zero, false).
// Results, including misses, are memoized in an injected bounded Cache.
package dates

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parsed is a memoized parse result. OK is false for unparseable input.
type Parsed struct {
	Time time.Time
	OK   bool
}

// Parser resolves raw date strings. The zero value is not usable; use NewParser.
type Parser struct {
	cache *Cache[string, Parsed]
	now   func() time.Time
	loc   *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithCache injects the memo cache, typically shared for the process lifetime.
func WithCache(c *Cache[string, Parsed]) Option {
	return func(p *Parser) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithClock sets the source of "now" used by the predicates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLocation sets the zone used for date-only inputs. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// NewParser creates a Parser with a fresh cache of ParseCacheSize entries
// unless one is injected.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cache == nil {
		p.cache = NewCache[string, Parsed](ParseCacheSize)
	}
	return p
}

// Now returns the parser's current time in its location.
func (p *Parser) Now() time.Time {
	return p.now().In(p.loc)
}

// Location returns the zone used for date-only inputs and day boundaries.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// CacheLen returns the number of memoized inputs.
func (p *Parser) CacheLen() int {
	return p.cache.Len()
}

var (
	isoPrefix   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	numericDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var fallbackLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/01/02",
}

// Parse resolves raw into an instant.
//
// Inputs starting with YYYY-MM-DD are read as ISO dates (date-only means
// local midnight). D/M/YYYY style inputs are read as MM/DD/YYYY unless the
// first part exceeds 12 and the second does not, in which case DD/MM/YYYY
// is used. Inputs where both parts are <= 12 are ambiguous and always read
// as MM/DD. Anything else goes through a fixed list of common layouts.
func (p *Parser) Parse(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if r, ok := p.cache.Get(raw); ok {
		return r.Time, r.OK
	}

	t, ok := p.parse(strings.TrimSpace(raw))
	p.cache.Add(raw, Parsed{Time: t, OK: ok})
	return t, ok
}

// ParseValue is Parse over a property value; see RawString.
func (p *Parser) ParseValue(v any) (time.Time, bool) {
	return p.Parse(RawString(v))
}

func (p *Parser) parse(s string) (time.Time, bool) {
	switch {
	case isoPrefix.MatchString(s):
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false

	case numericDate.MatchString(s):
		m := numericDate.FindStringSubmatch(s)
		p1, _ := strconv.Atoi(m[1])
		p2, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		month, day := p1, p2
		if p1 > 12 && p2 <= 12 {
			month, day = p2, p1
		}
		// time.Date normalizes overflowing months and days.
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, p.loc), true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsOverdue reports whether raw falls on a calendar day before today.
func (p *Parser) IsOverdue(raw string) bool {
	t, ok := p.Parse(raw)
	if !ok {
		return false
	}
	return p.dayOf(t).Before(p.dayOf(p.Now()))
}

// IsToday reports whether raw falls on today's calendar day.
func (p *Parser) IsToday(raw string) bool {
	t, ok := p.Parse(raw)
	if !ok {
		return false
	}
	return p.dayOf(t).Equal(p.dayOf(p.Now()))
}

// IsThisWeek reports whether raw falls in the Sunday-to-Saturday week
// containing today.
func (p *Parser) IsThisWeek(raw string) bool {
	t, ok := p.Parse(raw)
	if !ok {
		return false
	}
	start, end := p.Week()
	return !t.Before(start) && t.Before(end)
}

// Week returns the bounds of the current week: Sunday 00:00 (inclusive)
// and the following Sunday 00:00 (exclusive).
func (p *Parser) Week() (time.Time, time.Time) {
	today := p.dayOf(p.Now())
	start := today.AddDate(0, 0, -int(today.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// Day truncates t to midnight of its calendar day in the parser's location.
func (p *Parser) Day(t time.Time) time.Time {
	return p.dayOf(t)
}

func (p *Parser) dayOf(t time.Time) time.Time {
	t = t.In(p.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
}

// RawString renders a property value as the raw string used for parsing
// and cache keys. Times render as RFC 3339; integral numbers without a
// fractional part.
func RawString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return RawString(t[0])
	}
	return fmt.Sprint(v)
}
