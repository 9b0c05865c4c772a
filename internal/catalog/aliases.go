// Package catalog knows which tables exist, what users call them and which
// REST endpoint serves each one.
package catalog

import "sort"

// tableAliases maps lower-case words (singular and plural, plus legacy
// abbreviations) to canonical table names.
var tableAliases = map[string]string{
	// HRMS
	"employee":      "hrms_employees",
	"employees":     "hrms_employees",
	"staff":         "hrms_employees",
	"emp":           "hrms_employees",
	"department":    "hrms_departments",
	"departments":   "hrms_departments",
	"dept":          "hrms_departments",
	"depts":         "hrms_departments",
	"designation":   "hrms_designations",
	"designations":  "hrms_designations",
	"leave":         "hrms_leave_requests",
	"leaves":        "hrms_leave_requests",
	"attendance":    "hrms_attendance",
	"attendances":   "hrms_attendance",
	"payroll":       "hrms_payroll",
	"payslip":       "hrms_payroll",
	"payslips":      "hrms_payroll",
	"salary":        "hrms_payroll",
	"salaries":      "hrms_payroll",
	"holiday":       "hrms_holidays",
	"holidays":      "hrms_holidays",
	"shift":         "hrms_shifts",
	"shifts":        "hrms_shifts",
	"branch":        "hrms_branches",
	"branches":      "hrms_branches",
	"candidate":     "hrms_candidates",
	"candidates":    "hrms_candidates",
	"applicant":     "hrms_candidates",
	"applicants":    "hrms_candidates",
	"vacancy":       "hrms_job_openings",
	"vacancies":     "hrms_job_openings",
	"opening":       "hrms_job_openings",
	"openings":      "hrms_job_openings",
	"interview":     "hrms_interviews",
	"interviews":    "hrms_interviews",
	"asset":         "hrms_assets",
	"assets":        "hrms_assets",
	"appraisal":     "hrms_appraisals",
	"appraisals":    "hrms_appraisals",
	"training":      "hrms_trainings",
	"trainings":     "hrms_trainings",
	"expense":       "hrms_expense_claims",
	"expenses":      "hrms_expense_claims",
	"resignation":   "hrms_resignations",
	"resignations":  "hrms_resignations",
	// LMS
	"course":        "lms_courses",
	"courses":       "lms_courses",
	"chapter":       "chapter_master",
	"chapters":      "chapter_master",
	"lesson":        "lms_lessons",
	"lessons":       "lms_lessons",
	"quiz":          "lms_quizzes",
	"quizzes":       "lms_quizzes",
	"enrollment":    "lms_enrollments",
	"enrollments":   "lms_enrollments",
	"enrolment":     "lms_enrollments",
	"enrolments":    "lms_enrollments",
	"learner":       "lms_learners",
	"learners":      "lms_learners",
	"student":       "lms_learners",
	"students":      "lms_learners",
	"instructor":    "lms_instructors",
	"instructors":   "lms_instructors",
	"trainer":       "lms_instructors",
	"trainers":      "lms_instructors",
	"certificate":   "lms_certificates",
	"certificates":  "lms_certificates",
	"batch":         "lms_batches",
	"batches":       "lms_batches",
	"assignment":    "lms_assignments",
	"assignments":   "lms_assignments",
	"category":      "lms_categories",
	"categories":    "lms_categories",
	// Core
	"menu":          "tblmenumaster",
	"menus":         "tblmenumaster",
	"user":          "tbluser_master",
	"users":         "tbluser_master",
	"role":          "tblrole_master",
	"roles":         "tblrole_master",
	"notification":  "tblnotifications",
	"notifications": "tblnotifications",
	"announcement":  "tblannouncements",
	"announcements": "tblannouncements",
	"institution":   "tblinstitution_master",
	"institutions":  "tblinstitution_master",
}

// columnHints maps well-known filter columns to the table they usually belong to.
var columnHints = map[string]string{
	"parent_id":      "chapter_master",
	"chapter_id":     "chapter_master",
	"user_id":        "tbluser_master",
	"menu_id":        "tblmenumaster",
	"employee_id":    "hrms_employees",
	"emp_code":       "hrms_employees",
	"department_id":  "hrms_departments",
	"designation_id": "hrms_designations",
	"leave_type":     "hrms_leave_requests",
	"course_id":      "lms_courses",
	"batch_id":       "lms_batches",
	"learner_id":     "lms_learners",
}

// Alias returns the canonical table for a lower-case word.
func Alias(word string) (string, bool) {
	t, ok := tableAliases[word]
	return t, ok
}

// Hint returns the table a filter column points at.
func Hint(column string) (string, bool) {
	t, ok := columnHints[column]
	return t, ok
}

// Aliases returns a copy of the alias map.
func Aliases() map[string]string {
	out := make(map[string]string, len(tableAliases))
	for k, v := range tableAliases {
		out[k] = v
	}
	return out
}

// ColumnHints returns a copy of the column hint map.
func ColumnHints() map[string]string {
	out := make(map[string]string, len(columnHints))
	for k, v := range columnHints {
		out[k] = v
	}
	return out
}

// CanonicalTables lists every distinct canonical table name, sorted.
func CanonicalTables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tableAliases {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
