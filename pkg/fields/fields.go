// Package fields normalizes heterogeneous host values (frontmatter properties,
// tags) into plain scalars.
//
// Hosts hand out either plain scalars or "value objects" carrying the
// interpreted value next to its raw source text. Value models that as a
// tagged union; Normalize runs at the ingestion boundary so the engines only
// ever compare plain scalars.
package fields

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Value is either a Scalar or a Wrapped value object.
type Value interface {
	isValue()
}

// Scalar is a plain host value (string, number, bool, list, nil).
type Scalar struct {
	V any
}

// Wrapped is a host value object.
type Wrapped struct {
	Value any
	Raw   any
	Tag   any
}

func (Scalar) isValue()  {}
func (Wrapped) isValue() {}

// Lift classifies a raw host value. Maps carrying any of the "value", "raw"
// or "tag" keys are value objects; everything else is a scalar.
func Lift(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case map[string]any:
		_, hasValue := t["value"]
		_, hasRaw := t["raw"]
		_, hasTag := t["tag"]
		if hasValue || hasRaw || hasTag {
			return Wrapped{Value: t["value"], Raw: t["raw"], Tag: t["tag"]}
		}
	}
	return Scalar{V: v}
}

// ExtractPropertyValue unwraps a property value.
// Falsy input is returned as-is; a value object yields its Value, else its
// Raw, else itself; scalars are returned unchanged.
func ExtractPropertyValue(v any) any {
	if !Truthy(v) {
		return v
	}
	switch t := Lift(v).(type) {
	case Wrapped:
		if Truthy(t.Value) {
			return t.Value
		}
		if Truthy(t.Raw) {
			return t.Raw
		}
		return v
	case Scalar:
		return t.V
	}
	return v
}

// ExtractTagLabel unwraps a tag and strips one leading '#'.
// Non-string results yield the empty string.
func ExtractTagLabel(t any) string {
	if !Truthy(t) {
		return ""
	}
	actual := t
	if w, ok := Lift(t).(Wrapped); ok {
		switch {
		case Truthy(w.Value):
			actual = w.Value
		case Truthy(w.Raw):
			actual = w.Raw
		case Truthy(w.Tag):
			actual = w.Tag
		}
	}
	s, ok := actual.(string)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(s, "#")
}

// Truthy reports whether v would pass a boolean test in the host runtime:
// nil, "", false, zero numbers and NaN are falsy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case float64:
		return t != 0 && !math.IsNaN(t)
	case time.Time:
		return !t.IsZero()
	case Scalar:
		return Truthy(t.V)
	}
	return true
}

// Normalize unwraps every value of a property bag.
// Lists are normalized element-wise and times are rendered as date strings
// ("2006-01-02" at midnight, RFC 3339 otherwise).
func Normalize(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = normalizeValue(e)
		}
		return l
	case time.Time:
		return formatTime(t)
	}
	v = ExtractPropertyValue(v)
	if tm, ok := v.(time.Time); ok {
		return formatTime(tm)
	}
	return v
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// String renders a normalized value as text; lists are joined with ", ".
// Falsy values render as "".
func String(v any) string {
	if !Truthy(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := String(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case time.Time:
		return formatTime(t)
	case float64:
		if t == math.Trunc(t) {
			return fmt.Sprintf("%d", int64(t))
		}
	}
	return fmt.Sprint(v)
}
