package catalog_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableResolver(t *testing.T) {
	r := catalog.NewTableResolver()

	tests := []struct {
		name     string
		sql      string
		nl       string
		want     string
		strategy string
	}{
		{"fragment alias beats query words", "SELECT * FROM menu", "which course menus exist", "tblmenumaster", "fragment"},
		{"fragment already canonical", "SELECT * FROM chapter_master WHERE parent_id = 0", "", "chapter_master", "fragment"},
		{"fragment schema qualified", "SELECT * FROM hr.Departments", "", "hrms_departments", "fragment"},
		{"query words", "SELECT * WHERE status = 'active'", "show all active departments", "hrms_departments", "query_words"},
		{"query words trims punctuation", "", "how many employees?", "hrms_employees", "query_words"},
		{"first matching word wins", "", "list courses for each department", "lms_courses", "query_words"},
		{"column hint", "SELECT * WHERE parent_id = 0", "what is under the root", "chapter_master", "column_hints"},
		{"qualified column hint", "SELECT * WHERE u.user_id = 5", "who is this", "tbluser_master", "column_hints"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(query.Parse(tt.sql), tt.nl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Table)
			assert.Equal(t, tt.strategy, res.Strategy)
		})
	}
}

func TestTableResolverFailure(t *testing.T) {
	_, err := catalog.NewTableResolver().Resolve(query.Parse("SELECT 1"), "hello there")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNoTable))
	assert.Contains(t, err.Error(), "employees")
}

func TestTableResolverIdempotent(t *testing.T) {
	r := catalog.NewTableResolver()
	frag := query.Parse("SELECT * FROM leaves WHERE status = 'pending'")
	first, err := r.Resolve(frag, "pending leaves")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(frag, "pending leaves")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRegistryLoads(t *testing.T) {
	reg, err := catalog.LoadRegistry()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reg.Len(), 100)

	e, ok := reg.Lookup("attendance_summary")
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, e.Method)

	keys := reg.Keys()
	assert.IsIncreasing(t, keys)
}

func TestRegistryEveryAliasResolves(t *testing.T) {
	res := catalog.NewEndpointResolver(catalog.MustLoadRegistry())
	for _, table := range catalog.CanonicalTables() {
		got := res.Resolve(table)
		assert.NotEqual(t, catalog.StrategyFallback, got.Strategy, "table %s fell back", table)
	}
}

func TestEndpointResolver(t *testing.T) {
	res := catalog.NewEndpointResolver(catalog.MustLoadRegistry())

	tests := []struct {
		table    string
		key      string
		strategy string
		method   string
	}{
		{"hrms_departments", "hrms_departments", catalog.StrategyExact, http.MethodGet},
		{"lms_course_progress", "lms-course-progress", catalog.StrategyNormalized, http.MethodGet},
		{"tblmenumaster", "menu_master", catalog.StrategyRedirect, http.MethodGet},
		{"payroll_summary", "payroll_summary", catalog.StrategyExact, http.MethodPost},
		{"no_such_table", "", catalog.StrategyFallback, http.MethodGet},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got := res.Resolve(tt.table)
			assert.Equal(t, tt.key, got.Key)
			assert.Equal(t, tt.strategy, got.Strategy)
			assert.Equal(t, tt.method, got.Endpoint.Method)
		})
	}

	fb := res.Resolve("unknown_thing").Endpoint
	assert.Equal(t, catalog.MustLoadRegistry().Fallback(), fb)
	assert.Contains(t, fb.URL, "fetch-by-table")
}

func TestParseRegistryRejectsDanglingRedirect(t *testing.T) {
	_, err := catalog.ParseRegistry([]byte(`
fallback: {method: GET, url: "${core}/x"}
redirects:
  a: missing
endpoints:
  b: {method: GET, url: "${core}/b"}
`))
	require.Error(t, err)
}

func TestAliasesAreCopies(t *testing.T) {
	m := catalog.Aliases()
	m["menu"] = "tampered"
	got, _ := catalog.Alias("menu")
	assert.Equal(t, "tblmenumaster", got)
}

func TestHint(t *testing.T) {
	got, ok := catalog.Hint("course_id")
	assert.True(t, ok)
	assert.Equal(t, "lms_courses", got)

	_, ok = catalog.Hint("status")
	assert.False(t, ok)
}
