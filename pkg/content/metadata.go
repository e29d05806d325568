package content

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// Metadata is the property map of a node. Values are strings, time.Time,
// numbers or booleans.
type Metadata map[string]any

// timeLayouts are the accepted string encodings for timestamp properties,
// tried in order.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Clone returns a shallow copy of m. Values are immutable scalars so a shallow
// copy is independent of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// String returns the value of key as a string.
// The second result is false when the key is missing or not a string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time returns the value of key as a time.
// present is false when the key is missing. A present value that cannot be
// interpreted as a timestamp yields a non-nil error.
func (m Metadata) Time(key string) (t time.Time, present bool, err error) {
	v, ok := m[key]
	if !ok || v == nil {
		return time.Time{}, false, nil
	}

	switch val := v.(type) {
	case time.Time:
		return val, true, nil
	case *time.Time:
		if val == nil {
			return time.Time{}, false, nil
		}
		return *val, true, nil
	case string:
		t, err := ParseTime(val)
		return t, true, err
	default:
		return time.Time{}, true, fmt.Errorf("property %q has type %T, want timestamp", key, v)
	}
}

// ParseTime parses s using the accepted timestamp layouts. Layouts without a
// zone are interpreted as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
