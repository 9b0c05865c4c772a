package security

import "strings"

// deniedKeywords block a statement when they appear anywhere in it, including
// inside identifiers such as created_at.
var deniedKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "INSERT", "UPDATE",
}

// SQLValidator gates generated SQL before it is compiled into an API call.
type SQLValidator struct{}

func NewSQLValidator() *SQLValidator {
	return &SQLValidator{}
}

// Validate returns an error string if SQL is rejected, or empty string if OK
func (v *SQLValidator) Validate(sql string) string {
	if strings.TrimSpace(sql) == "" {
		return "SQL cannot be empty"
	}
	upper := strings.ToUpper(sql)
	for _, kw := range deniedKeywords {
		if strings.Contains(upper, kw) {
			return "SQL contains forbidden keyword: " + kw
		}
	}
	return ""
}

// ValidateSQL reports whether sql passes the keyword denylist.
func ValidateSQL(sql string) bool {
	return NewSQLValidator().Validate(sql) == ""
}
