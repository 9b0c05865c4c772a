package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/askhr/askhr/internal/llm"
	"github.com/askhr/askhr/internal/store"
)

type jdField struct {
	key      string
	label    string
	required bool
}

var jobDescriptionFields = []jdField{
	{"title", "Title", true},
	{"department", "Department", true},
	{"experience", "Experience", true},
	{"location", "Location", false},
	{"employment_type", "Employment type", false},
	{"skills", "Skills", false},
}

// Longer labels first so "job title" is not read as "title".
var reFieldLabel = regexp.MustCompile(`(?i)\b(job title|position|title|department|dept|experience|location|employment type|job type|skills)\s*:`)

var labelKeys = map[string]string{
	"job title":       "title",
	"position":        "title",
	"title":           "title",
	"department":      "department",
	"dept":            "department",
	"experience":      "experience",
	"location":        "location",
	"employment type": "employment_type",
	"job type":        "employment_type",
	"skills":          "skills",
}

// extractFields reads "label: value" pairs. A value runs to the next label or
// the end of the line.
func extractFields(text string) map[string]string {
	fields := make(map[string]string)
	matches := reFieldLabel.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := text[m[1]:end]
		if nl := strings.IndexByte(value, '\n'); nl >= 0 {
			value = value[:nl]
		}
		value = strings.Trim(strings.TrimSpace(value), ",;")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := labelKeys[strings.ToLower(text[m[2]:m[3]])]
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	}
	return fields
}

func missingFields(fields map[string]string) []string {
	var missing []string
	for _, f := range jobDescriptionFields {
		if f.required && fields[f.key] == "" {
			missing = append(missing, f.key)
		}
	}
	return missing
}

// ActionResult is the outcome of a structured action.
type ActionResult struct {
	Answer  string
	Missing []string
	ID      string
}

// JobDescriptionAction drafts and stores a job description from labeled fields.
type JobDescriptionAction struct {
	llm         llm.Completer
	model       string
	temperature float64
	store       store.JobDescriptionStore
}

func NewJobDescriptionAction(c llm.Completer, model string, temperature float64, s store.JobDescriptionStore) *JobDescriptionAction {
	return &JobDescriptionAction{llm: c, model: model, temperature: temperature, store: s}
}

// Run reports missing required fields without calling the model. Otherwise
// it generates once and persists the result.
func (a *JobDescriptionAction) Run(ctx context.Context, conversationID, text string) (*ActionResult, error) {
	fields := extractFields(text)
	if missing := missingFields(fields); len(missing) > 0 {
		return &ActionResult{
			Answer: fmt.Sprintf("To draft the job description I still need: %s. Reply with lines such as \"department: Engineering\".",
				strings.Join(missing, ", ")),
			Missing: missing,
		}, nil
	}

	body, err := a.llm.Complete(llm.WithPurpose(ctx, "job_description"), llm.Request{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: jobDescriptionSystemPrompt},
			{Role: llm.RoleUser, Content: jobDescriptionPrompt(fields)},
		},
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, classify(KindGenerationFailed, err)
	}
	body = llm.StripCodeFences(body)

	jd := &store.JobDescription{ConversationID: conversationID, Fields: fields, Body: body}
	if err := a.store.SaveJobDescription(ctx, jd); err != nil {
		return nil, classify(KindUnknown, fmt.Errorf("save job description: %w", err))
	}
	return &ActionResult{Answer: body, ID: jd.ID}, nil
}
