package transform

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	// MaxCounterKeys bounds the distinct names one counter tracks.
	MaxCounterKeys = 200
	// MaxKeyRunes bounds the length of a counted name.
	MaxKeyRunes = 64
	// OverflowKey collects counts for names past MaxCounterKeys.
	OverflowKey = "Other"
	// UnknownKey replaces names that are empty after trimming.
	UnknownKey = "Unknown"
)

// Counter counts occurrences of names taken from untrusted sheet text.
// Names are sanitized and the number of distinct keys is capped.
type Counter struct {
	limit  int
	counts map[string]int
}

// NewCounter returns a counter holding at most limit distinct names plus
// the overflow key. A limit <= 0 uses MaxCounterKeys.
func NewCounter(limit int) *Counter {
	if limit <= 0 {
		limit = MaxCounterKeys
	}
	return &Counter{limit: limit, counts: make(map[string]int)}
}

// Inc adds n to the count of name.
func (c *Counter) Inc(name string, n int) {
	key := SanitizeKey(name)
	if _, ok := c.counts[key]; !ok && key != OverflowKey && c.distinct() >= c.limit {
		key = OverflowKey
	}
	c.counts[key] += n
}

// Get returns the count for name.
func (c *Counter) Get(name string) int {
	return c.counts[SanitizeKey(name)]
}

// Len is the number of keys including the overflow key.
func (c *Counter) Len() int { return len(c.counts) }

// Map returns a copy of the counts.
func (c *Counter) Map() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

func (c *Counter) distinct() int {
	n := len(c.counts)
	if _, ok := c.counts[OverflowKey]; ok {
		n--
	}
	return n
}

func (c *Counter) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.counts)
}

// SanitizeKey trims and collapses whitespace and cuts the name to
// MaxKeyRunes runes. Empty names become UnknownKey.
func SanitizeKey(name string) string {
	s := strings.Join(strings.Fields(name), " ")
	if s == "" {
		return UnknownKey
	}
	if utf8.RuneCountInString(s) > MaxKeyRunes {
		s = strings.TrimSpace(string([]rune(s)[:MaxKeyRunes]))
	}
	return s
}

// Total is the sum of all counts.
func (c *Counter) Total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}
