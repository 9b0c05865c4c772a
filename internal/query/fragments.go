// Package query turns a generated SELECT statement into the pieces the data API
// understands: fragments, a filter set and the request parameters.
package query

import (
	"regexp"
	"strconv"
	"strings"
)

// Fragments holds the clauses extracted from one SQL statement. Any field may be
// empty; a missing clause is not an error.
type Fragments struct {
	Select   string `json:"select,omitempty"`
	Table    string `json:"table,omitempty"`
	Where    string `json:"where,omitempty"`
	OrderBy  string `json:"order_by,omitempty"`
	OrderDir string `json:"order_dir,omitempty"` // "ASC" | "DESC"
	GroupBy  string `json:"group_by,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
}

var (
	reSelect = regexp.MustCompile(`(?is)\bSELECT\s+(.*?)\s+FROM\b`)
	reTable  = regexp.MustCompile("(?i)\\b(?:FROM|JOIN)\\s+[`\"\\[]?([\\w.]+)")
	reWhere  = regexp.MustCompile(`(?is)\bWHERE\s+(.*?)(?:\s+ORDER\s+BY\b|\s+GROUP\s+BY\b|\s+LIMIT\b|;|$)`)
	reOrder  = regexp.MustCompile("(?i)\\bORDER\\s+BY\\s+[`\"]?([\\w.]+)[`\"]?(?:\\s+(ASC|DESC)\\b)?")
	reGroup  = regexp.MustCompile(`(?is)\bGROUP\s+BY\s+([\w.,\s]+?)(?:\s+ORDER\s+BY\b|\s+LIMIT\b|\s+HAVING\b|;|$)`)
	reLimit  = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)
)

// Parse runs each clause extractor independently. It never fails.
func Parse(sql string) Fragments {
	var f Fragments
	if s, ok := extractSelect(sql); ok {
		f.Select = s
	}
	if t, ok := extractTable(sql); ok {
		f.Table = t
	}
	if w, ok := extractWhere(sql); ok {
		f.Where = w
	}
	if col, dir, ok := extractOrder(sql); ok {
		f.OrderBy = col
		f.OrderDir = dir
	}
	if g, ok := extractGroup(sql); ok {
		f.GroupBy = g
	}
	if n, ok := extractLimit(sql); ok {
		f.Limit = &n
	}
	return f
}

func extractSelect(sql string) (string, bool) {
	return firstGroup(reSelect, sql)
}

// extractTable returns the first FROM or JOIN target as written.
func extractTable(sql string) (string, bool) {
	return firstGroup(reTable, sql)
}

func extractWhere(sql string) (string, bool) {
	return firstGroup(reWhere, sql)
}

func extractOrder(sql string) (col, dir string, ok bool) {
	m := reOrder.FindStringSubmatch(sql)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.ToUpper(m[2]), true
}

func extractGroup(sql string) (string, bool) {
	return firstGroup(reGroup, sql)
}

func extractLimit(sql string) (int, bool) {
	s, ok := firstGroup(reLimit, sql)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}
