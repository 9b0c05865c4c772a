package query_test

import (
	"testing"

	"github.com/askhr/askhr/internal/query"
	"github.com/google/go-cmp/cmp"
)

func intPtr(n int) *int { return &n }

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want query.Fragments
	}{
		{
			name: "chapter master by parent",
			sql:  "SELECT * FROM chapter_master WHERE parent_id = 0",
			want: query.Fragments{Select: "*", Table: "chapter_master", Where: "parent_id = 0"},
		},
		{
			name: "all clauses",
			sql:  "SELECT name, status FROM hrms_departments WHERE status = 'active' AND branch_id IN (1, 2) GROUP BY status ORDER BY name desc LIMIT 25;",
			want: query.Fragments{
				Select:   "name, status",
				Table:    "hrms_departments",
				Where:    "status = 'active' AND branch_id IN (1, 2)",
				GroupBy:  "status",
				OrderBy:  "name",
				OrderDir: "DESC",
				Limit:    intPtr(25),
			},
		},
		{
			name: "schema qualified and quoted",
			sql:  "select id from `hr.employees` order by id",
			want: query.Fragments{Select: "id", Table: "hr.employees", OrderBy: "id"},
		},
		{
			name: "join table when no from",
			sql:  "SELECT x JOIN lms_courses c ON c.id = x.course_id",
			want: query.Fragments{Table: "lms_courses"},
		},
		{
			name: "no from clause",
			sql:  "SELECT * WHERE status = 'active'",
			want: query.Fragments{Where: "status = 'active'"},
		},
		{
			name: "multiline where stops at limit",
			sql:  "SELECT *\nFROM lms_enrollments\nWHERE course_id = 7\nLIMIT 10",
			want: query.Fragments{Select: "*", Table: "lms_enrollments", Where: "course_id = 7", Limit: intPtr(10)},
		},
		{
			name: "empty",
			sql:  "",
			want: query.Fragments{},
		},
		{
			name: "garbage",
			sql:  "show me something",
			want: query.Fragments{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.Parse(tt.sql)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.sql, diff)
			}
		})
	}
}

func TestParseFirstTableWins(t *testing.T) {
	got := query.Parse("SELECT * FROM hrms_employees e JOIN hrms_departments d ON d.id = e.department_id")
	if got.Table != "hrms_employees" {
		t.Errorf("Table = %q, want hrms_employees", got.Table)
	}
}
