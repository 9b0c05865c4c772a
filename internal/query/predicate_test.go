package query_test

import (
	"encoding/json"
	"testing"

	"github.com/askhr/askhr/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name  string
		where string
		keys  []string
		want  map[string]any
	}{
		{
			name:  "numeric equality",
			where: "parent_id = 0",
			keys:  []string{"parent_id"},
			want:  map[string]any{"parent_id": int64(0)},
		},
		{
			name:  "quoted numeric is coerced",
			where: "grade = '4.5'",
			keys:  []string{"grade"},
			want:  map[string]any{"grade": 4.5},
		},
		{
			name:  "text equality and like",
			where: "status = 'active' and name LIKE '%ops%'",
			keys:  []string{"status", "name"},
			want:  map[string]any{"status": "active", "name": "%ops%"},
		},
		{
			name:  "in list",
			where: "status IN (1, 2) AND code IN ('a','b')",
			keys:  []string{"status", "code"},
			want: map[string]any{
				"status": []any{int64(1), int64(2)},
				"code":   []any{"a", "b"},
			},
		},
		{
			name:  "positional fallback",
			where: "joined_on >= '2024-01-01'",
			keys:  []string{"joined_on"},
			want:  map[string]any{"joined_on": "2024-01-01"},
		},
		{
			name:  "unparseable conjunct dropped",
			where: "active AND department_id = 3",
			keys:  []string{"department_id"},
			want:  map[string]any{"department_id": int64(3)},
		},
		{
			name:  "empty",
			where: "   ",
			keys:  nil,
			want:  map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := query.ParseFilters(tt.where)
			assert.Equal(t, len(tt.keys), fs.Len())
			if len(tt.keys) > 0 {
				assert.Equal(t, tt.keys, fs.Keys())
			}
			for k, want := range tt.want {
				got, ok := fs.Get(k)
				require.True(t, ok, "missing key %s", k)
				assert.Equal(t, want, got, "key %s", k)
			}
		})
	}
}

func TestFilterSetKeepsFirstPosition(t *testing.T) {
	fs := query.ParseFilters("a = 1 AND b = 2 AND a = 3")
	assert.Equal(t, []string{"a", "b"}, fs.Keys())
	v, _ := fs.Get("a")
	assert.Equal(t, int64(3), v)
}

func TestFilterSetMarshalJSONOrdered(t *testing.T) {
	fs := query.NewFilterSet()
	fs.Set("zeta", "z")
	fs.Set("alpha", []any{int64(1), int64(2)})

	b, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z","alpha":[1,2]}`, string(b))
}
