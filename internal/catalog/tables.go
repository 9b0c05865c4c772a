package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/askhr/askhr/internal/query"
)

// ErrNoTable is returned when no strategy can name a table.
var ErrNoTable = errors.New("could not determine which table to query")

// exampleTableWords are offered back to the user when resolution fails.
var exampleTableWords = []string{"employees", "departments", "leaves", "courses", "chapters", "menus"}

// TableStrategy is one step of table resolution. Resolve returns "" when it
// has no opinion.
type TableStrategy struct {
	Name    string
	Resolve func(frag query.Fragments, nlQuery string) string
}

// TableResolution names the chosen table and the strategy that produced it.
type TableResolution struct {
	Table    string `json:"table"`
	Strategy string `json:"strategy"`
}

// TableResolver applies its strategies in order; the first hit wins.
type TableResolver struct {
	strategies []TableStrategy
}

func NewTableResolver() *TableResolver {
	return &TableResolver{strategies: []TableStrategy{
		{Name: "fragment", Resolve: fromFragment},
		{Name: "query_words", Resolve: fromQueryWords},
		{Name: "column_hints", Resolve: fromColumnHints},
	}}
}

// Strategies returns the strategy names in evaluation order.
func (r *TableResolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

func (r *TableResolver) Resolve(frag query.Fragments, nlQuery string) (TableResolution, error) {
	for _, s := range r.strategies {
		if t := s.Resolve(frag, nlQuery); t != "" {
			return TableResolution{Table: t, Strategy: s.Name}, nil
		}
	}
	return TableResolution{}, fmt.Errorf("%w; try mentioning one of: %s",
		ErrNoTable, strings.Join(exampleTableWords, ", "))
}

// fromFragment canonicalizes the FROM/JOIN table. Names absent from the alias
// map are taken to be canonical already.
func fromFragment(frag query.Fragments, _ string) string {
	name := strings.ToLower(strings.TrimSpace(frag.Table))
	if name == "" {
		return ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return ""
	}
	if t, ok := tableAliases[name]; ok {
		return t
	}
	return name
}

// fromQueryWords returns the alias of the first word in the user's text that
// names a table.
func fromQueryWords(_ query.Fragments, nlQuery string) string {
	for _, w := range strings.Fields(strings.ToLower(nlQuery)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if t, ok := tableAliases[w]; ok {
			return t
		}
	}
	return ""
}

// fromColumnHints looks at the WHERE columns in their written order.
func fromColumnHints(frag query.Fragments, _ string) string {
	if frag.Where == "" {
		return ""
	}
	for _, col := range query.ParseFilters(frag.Where).Keys() {
		col = strings.ToLower(col)
		if i := strings.LastIndex(col, "."); i >= 0 {
			col = col[i+1:]
		}
		if t, ok := Hint(col); ok {
			return t
		}
	}
	return ""
}
