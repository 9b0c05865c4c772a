package agent

import (
	"fmt"
	"strings"

	"github.com/askhr/askhr/internal/catalog"
)

const sqlSystemPromptHeader = `You are AskHR, an assistant that answers questions about an HR and learning-management system.
Translate the user's question into ONE read-only SQL SELECT statement.

Rules:
- Only SELECT. Never write DROP, DELETE, TRUNCATE, ALTER, CREATE, INSERT or UPDATE, not even inside column names.
- Use exactly one table in FROM. Do not use JOIN, sub-queries or UNION.
- Filters go in WHERE, combined with AND only. Use =, IN (...) or LIKE.
- Add ORDER BY, GROUP BY and LIMIT only when the question asks for them.
- Return the SQL in a single ` + "```sql```" + ` block and nothing else.

Known tables:
`

// sqlSystemPrompt lists the canonical tables once; the alias map never changes.
var sqlSystemPrompt = buildSQLSystemPrompt()

func buildSQLSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(sqlSystemPromptHeader)
	for _, t := range catalog.CanonicalTables() {
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	return sb.String()
}

const insightSystemPrompt = `You are AskHR. You receive a user's question, the SQL that was used and the rows the HR system returned.
Write a short, factual answer in the user's language. Mention counts and notable values.
Do not invent records that are not in the rows. If there are no rows, say so plainly.`

const fallbackSystemPrompt = `You are AskHR, a helpful assistant for employees and learners.
The live HR data could not be reached for this question. Answer from general knowledge and the conversation so far.
Be explicit that you could not look up live records, and never state specific employee, payroll or course figures.`

const jobDescriptionSystemPrompt = `You are an HR specialist. Write a complete, well-structured job description in Markdown
with the sections: Summary, Responsibilities, Requirements, Nice to have, and What we offer.
Use only the details provided; keep it inclusive and free of discriminatory language.`

func retryHint(prev *PipelineError) string {
	if prev == nil {
		return ""
	}
	return fmt.Sprintf("\n\nThe previous attempt failed (%s: %s). Produce a different query that avoids this problem.",
		prev.Kind, prev.Message)
}

func jobDescriptionPrompt(fields map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Write a job description with these details:\n")
	for _, f := range jobDescriptionFields {
		if v := fields[f.key]; v != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", f.label, v)
		}
	}
	return sb.String()
}
