package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached query. It is an ordered tuple of primitives
// (strings, numbers, bools, nil); two keys are equal when their canonical
// forms are.
type Key []any

// K builds a Key.
func K(parts ...any) Key { return Key(parts) }

// String returns the canonical form, a JSON array. Numbers of different Go
// types with the same value (1, int64(1), 1.0) are the same key part.
func (k Key) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range k {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(partString(p))
	}
	b.WriteByte(']')
	return b.String()
}

// HasPrefix reports whether the first len(prefix) parts of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if partString(k[i]) != partString(p) {
			return false
		}
	}
	return true
}

// Equal reports whether k and other are the same key.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// ParseKey reverses String. Numbers come back as float64, which is
// equivalent under canonical comparison.
func ParseKey(s string) (Key, error) {
	var parts []any
	if err := json.Unmarshal([]byte(s), &parts); err != nil {
		return nil, fmt.Errorf("parsing query key %q: %w", s, err)
	}
	return Key(parts), nil
}

func partString(p any) string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(p))
	}
	return string(data)
}
