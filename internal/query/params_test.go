package query_test

import (
	"testing"

	"github.com/askhr/askhr/internal/query"
	"github.com/stretchr/testify/assert"
)

func TestBuildArrayFilters(t *testing.T) {
	fs := query.NewFilterSet()
	fs.Set("status", []any{int64(1), int64(2)})

	p := query.NewParamBuilder(query.ParamConfig{}).Build("hrms_employees", fs, query.Fragments{})

	v0, ok := p.Get("filters[status][0]")
	assert.True(t, ok)
	assert.Equal(t, "1", v0)
	v1, ok := p.Get("filters[status][1]")
	assert.True(t, ok)
	assert.Equal(t, "2", v1)
	_, ok = p.Get("filters[status]")
	assert.False(t, ok)
}

func TestBuildFullParameterOrder(t *testing.T) {
	limit := 5
	fs := query.ParseFilters("status = 'active' AND branch_id = 3")
	frag := query.Fragments{OrderBy: "name", OrderDir: "DESC", GroupBy: "status", Limit: &limit}
	b := query.NewParamBuilder(query.ParamConfig{
		APIToken:      "tok",
		InstitutionID: "9",
		OperatorID:    "op-1",
		PeriodID:      "2025",
	})

	p := b.Build("hrms_departments", fs, frag)

	want := [][2]string{
		{"api_token", "tok"},
		{"institution_id", "9"},
		{"table", "hrms_departments"},
		{"filters[status]", "active"},
		{"filters[branch_id]", "3"},
		{"order_by[column]", "name"},
		{"order_by[direction]", "desc"},
		{"group_by", "status"},
		{"limit", "5"},
		{"is_api_request", "1"},
		{"operator_id", "op-1"},
		{"period_id", "2025"},
	}
	assert.Equal(t, want, p.Pairs())
}

func TestBuildFallbackToken(t *testing.T) {
	p := query.NewParamBuilder(query.ParamConfig{FallbackAPIToken: "backup"}).
		Build("lms_courses", nil, query.Fragments{})

	tok, ok := p.Get("api_token")
	assert.True(t, ok)
	assert.Equal(t, "backup", tok)
	_, ok = p.Get("institution_id")
	assert.False(t, ok, "unset identities are omitted")
	_, ok = p.Get("operator_id")
	assert.False(t, ok)
}

func TestBuildOmitsNilValues(t *testing.T) {
	fs := query.NewFilterSet()
	fs.Set("manager_id", nil)
	fs.Set("ids", []any{int64(4), nil, int64(6)})

	p := query.NewParamBuilder(query.ParamConfig{}).Build("hrms_employees", fs, query.Fragments{})

	_, ok := p.Get("filters[manager_id]")
	assert.False(t, ok)
	_, ok = p.Get("filters[ids][1]")
	assert.False(t, ok)
	v, _ := p.Get("filters[ids][2]")
	assert.Equal(t, "6", v)
}

func TestEncodePreservesOrder(t *testing.T) {
	var p query.Params
	p.Add("table", "menu")
	p.Add("filters[status][0]", "1")
	assert.Equal(t, "table=menu&filters%5Bstatus%5D%5B0%5D=1", p.Encode())
}

func TestRedactedMasksToken(t *testing.T) {
	var p query.Params
	p.Add(query.ParamAPIToken, "secret")
	p.Add(query.ParamTable, "hrms_employees")
	assert.Equal(t, "api_token=%2A%2A%2A&table=hrms_employees", p.Redacted())
	// the original is untouched
	assert.Equal(t, "api_token=secret&table=hrms_employees", p.Encode())
}
