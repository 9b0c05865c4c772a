package security

import (
	"fmt"
	"regexp"
	"strings"
)

// Column-name patterns with a dedicated masking format. Anything else that is
// sensitive is replaced by "***".
var (
	emailRe    = regexp.MustCompile(`(?i)e_?mail`)
	phoneRe    = regexp.MustCompile(`(?i)phone|mobile|whatsapp`)
	identityRe = regexp.MustCompile(`(?i)aadhaar|aadhar|pan_?number|national_id|nik|passport|ssn|social_security`)
	accountRe  = regexp.MustCompile(`(?i)bank_account|account_number|iban|card_number|credit_card`)
	fullMaskRe = regexp.MustCompile(`(?i)password|secret|token|api_key|access_key|private_key|salary|ctc|basic_pay`)
)

// DataMasker masks sensitive column values in data API rows before they are
// shown to the model or returned.
type DataMasker struct {
	sensitiveColumns []string
}

func NewDataMasker(sensitiveColumns []string) *DataMasker {
	lower := make([]string, 0, len(sensitiveColumns))
	for _, c := range sensitiveColumns {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			lower = append(lower, c)
		}
	}
	return &DataMasker{sensitiveColumns: lower}
}

// MaskRows masks sensitive fields of object rows returned by the data API.
// Rows that are not objects pass through unchanged. A nil masker masks nothing.
func (m *DataMasker) MaskRows(rows []any) []any {
	if m == nil || rows == nil {
		return rows
	}
	masked := make([]any, len(rows))
	for i, row := range rows {
		masked[i] = m.maskAny(row)
	}
	return masked
}

func (m *DataMasker) maskAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return m.maskRow(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = m.maskAny(e)
		}
		return out
	default:
		return v
	}
}

func (m *DataMasker) maskRow(row map[string]any) map[string]any {
	result := make(map[string]any, len(row))
	for col, val := range row {
		switch val.(type) {
		case nil:
			result[col] = nil
		case map[string]any, []any:
			result[col] = m.maskAny(val)
		default:
			if m.isSensitive(col) {
				result[col] = maskValue(col, fmt.Sprintf("%v", val))
			} else {
				result[col] = val
			}
		}
	}
	return result
}

func (m *DataMasker) isSensitive(col string) bool {
	lower := strings.ToLower(col)
	for _, s := range m.sensitiveColumns {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return emailRe.MatchString(col) || phoneRe.MatchString(col) ||
		identityRe.MatchString(col) || accountRe.MatchString(col) || fullMaskRe.MatchString(col)
}

func maskValue(col, val string) string {
	switch {
	case emailRe.MatchString(col):
		return maskEmail(val)
	case phoneRe.MatchString(col):
		return "***-***-" + lastDigits(val, 4, "****")
	case identityRe.MatchString(col), accountRe.MatchString(col):
		return "XXXX" + lastDigits(val, 4, "")
	default:
		return "***"
	}
}

// maskEmail: "john.doe@example.com" → "jo***@***.com"
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}
	if len(local) > 2 {
		local = local[:2]
	}
	ext := domain[strings.LastIndexByte(domain, '.')+1:]
	return local + "***@***." + ext
}

// lastDigits returns the last n digits of s, or short when s has fewer.
func lastDigits(s string, n int, short string) string {
	var digits []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) < n {
		return short
	}
	return string(digits[len(digits)-n:])
}
