package query

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// FilterSet maps column names to filter values and remembers insertion order.
// Values are string, int64, float64 or []any of those.
type FilterSet struct {
	keys   []string
	values map[string]any
}

func NewFilterSet() *FilterSet {
	return &FilterSet{values: make(map[string]any)}
}

// Set stores v under col. A column set twice keeps its first position.
func (f *FilterSet) Set(col string, v any) {
	if _, ok := f.values[col]; !ok {
		f.keys = append(f.keys, col)
	}
	f.values[col] = v
}

func (f *FilterSet) Get(col string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[col]
	return v, ok
}

// Keys returns the columns in insertion order.
func (f *FilterSet) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *FilterSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Each visits every filter in insertion order.
func (f *FilterSet) Each(fn func(col string, v any)) {
	if f == nil {
		return
	}
	for _, k := range f.keys {
		fn(k, f.values[k])
	}
}

// MarshalJSON writes an object whose keys keep insertion order.
func (f *FilterSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var (
	reConjunction = regexp.MustCompile(`(?i)\s+AND\s+`)
	reIn          = regexp.MustCompile(`(?is)^([\w.]+)\s+IN\s*\((.*)\)$`)
	reEquals      = regexp.MustCompile(`(?s)^([\w.]+)\s*=\s*(.+)$`)
	reLike        = regexp.MustCompile(`(?is)^([\w.]+)\s+LIKE\s+(.+)$`)
	reNumeric     = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseFilters interprets a WHERE clause as a conjunction of simple predicates.
// Each conjunct is tried as IN, equality, LIKE and finally as a positional
// "column <op> value..." triple; anything else is dropped.
func ParseFilters(where string) *FilterSet {
	fs := NewFilterSet()
	where = strings.TrimSpace(where)
	if where == "" {
		return fs
	}
	for _, part := range reConjunction.Split(where, -1) {
		cond := strings.TrimSpace(part)
		if cond == "" {
			continue
		}
		if m := reIn.FindStringSubmatch(cond); m != nil {
			fs.Set(m[1], parseList(m[2]))
			continue
		}
		if m := reEquals.FindStringSubmatch(cond); m != nil {
			fs.Set(m[1], coerce(unquote(m[2])))
			continue
		}
		if m := reLike.FindStringSubmatch(cond); m != nil {
			fs.Set(m[1], unquote(m[2]))
			continue
		}
		tokens := strings.Fields(cond)
		if len(tokens) >= 3 {
			fs.Set(tokens[0], unquote(strings.Join(tokens[2:], " ")))
		}
	}
	return fs
}

func parseList(s string) []any {
	var out []any
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, coerce(unquote(item)))
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// coerce turns numeric-looking text into int64 or float64.
func coerce(s string) any {
	if !reNumeric.MatchString(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
