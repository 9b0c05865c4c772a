package agent

import (
	"regexp"
	"strings"
)

// extractSQL pulls SQL from model output using 3 strategies in order:
// 1. ```sql ... ``` code block (preferred)
// 2. ``` ... ``` generic code block containing SELECT
// 3. SELECT ... FROM statement anywhere in the text
var reSelectBlock = regexp.MustCompile(`(?is)(SELECT\s+.+?\bFROM\b.+?(?:;|\n\s*\n|\z))`)

func extractSQL(text string) string {
	// Strategy 1: ```sql block, any case
	lower := strings.ToLower(text)
	if idx := strings.Index(lower, "```sql"); idx != -1 {
		body := text[idx+len("```sql"):]
		body = strings.TrimPrefix(body, "\n")
		if end := strings.Index(body, "```"); end != -1 {
			if sql := strings.TrimSpace(body[:end]); sql != "" {
				return strings.TrimSuffix(sql, ";")
			}
		}
	}

	// Strategy 2: any ``` block whose content starts with SELECT
	parts := strings.Split(text, "```")
	for i := 1; i < len(parts); i += 2 {
		candidate := strings.TrimSpace(parts[i])
		// strip language tag line if present (e.g. "text\nSELECT")
		if nl := strings.Index(candidate, "\n"); nl != -1 {
			firstLine := strings.TrimSpace(candidate[:nl])
			if !strings.Contains(strings.ToUpper(firstLine), "SELECT") {
				candidate = strings.TrimSpace(candidate[nl:])
			}
		}
		if strings.HasPrefix(strings.ToUpper(candidate), "SELECT") {
			return strings.TrimSuffix(strings.TrimSpace(candidate), ";")
		}
	}

	// Strategy 3: bare SELECT ... FROM ... up to a semicolon, blank line or end
	if m := reSelectBlock.FindString(text); m != "" {
		return strings.TrimSuffix(strings.TrimSpace(m), ";")
	}

	return ""
}
