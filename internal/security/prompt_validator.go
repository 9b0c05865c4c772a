package security

import (
	"regexp"
	"strings"
)

const MaxPromptLength = 2000

// Threat categories reported by Sanitize.
const (
	ThreatEmpty            = "empty_prompt"
	ThreatTooLong          = "prompt_too_long"
	ThreatCommandExecution = "command_execution"
	ThreatPathTraversal    = "path_traversal"
	ThreatCodeExecution    = "code_execution"
	ThreatPromptInjection  = "prompt_injection"
	ThreatSQLInjection     = "sql_injection"
)

type threatRule struct {
	category string
	patterns []*regexp.Regexp
}

var threatRules = []threatRule{
	{ThreatCommandExecution, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\s+-`),
		regexp.MustCompile(`(?i)\brm\s+/`),
		regexp.MustCompile(`(?i)\bcurl\s+\S`),
		regexp.MustCompile(`(?i)\bwget\s+\S`),
		regexp.MustCompile(`(?i)\bnc\s+-`),
		regexp.MustCompile(`(?i)\bbash\s+-`),
		regexp.MustCompile(`(?i)\bsh\s+-c\b`),
		regexp.MustCompile(`(?i)\bsudo\s+`),
		regexp.MustCompile(`(?i)\bchmod\s+[0-7+]`),
		regexp.MustCompile("`[^`]*\\$\\([^)]*\\)[^`]*`"),
	}},
	{ThreatPathTraversal, []*regexp.Regexp{
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`\.\.\\`),
		regexp.MustCompile(`/etc/passwd`),
		regexp.MustCompile(`/etc/shadow`),
		regexp.MustCompile(`/proc/`),
		regexp.MustCompile(`id_rsa`),
		regexp.MustCompile(`\.ssh/`),
	}},
	{ThreatCodeExecution, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)\bexec\s*\(`),
		regexp.MustCompile(`(?i)\bsystem\s*\(`),
		regexp.MustCompile(`(?i)__import__\s*\(`),
		regexp.MustCompile(`(?i)\bsubprocess\b`),
		regexp.MustCompile(`(?i)os\.system`),
		regexp.MustCompile(`(?i)\bpopen\b`),
		regexp.MustCompile(`(?i)<script\b`),
		regexp.MustCompile(`(?i)javascript:`),
	}},
	{ThreatPromptInjection, []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?previous\s+instructions`),
		regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?previous\s+instructions`),
		regexp.MustCompile(`(?i)forget\s+(all\s+)?(the\s+)?previous\s+instructions`),
		regexp.MustCompile(`(?i)override\s+(all\s+)?(the\s+)?previous\s+instructions`),
		regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|in)\b`),
		regexp.MustCompile(`(?i)reveal\s+(your|the)\s+(system\s+)?prompt`),
		regexp.MustCompile(`(?i)new\s+context\s*:`),
		regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	}},
	{ThreatSQLInjection, []*regexp.Regexp{
		regexp.MustCompile(`(?i);\s*(DROP|DELETE|TRUNCATE|ALTER|INSERT|UPDATE)\s`),
		regexp.MustCompile(`(?i)\bUNION\s+(ALL\s+)?SELECT\b`),
		regexp.MustCompile(`(?i)'\s*OR\s+'?1'?\s*=\s*'?1`),
		regexp.MustCompile(`(?i)\bOR\s+1\s*=\s*1\b`),
		regexp.MustCompile(`'\s*--`),
		regexp.MustCompile(`/\*.*?\*/`),
	}},
}

// PromptValidator screens user text before anything else sees it.
type PromptValidator struct {
	maxLength int
}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{maxLength: MaxPromptLength}
}

// SanitizeResult lists every threat category the text matched.
type SanitizeResult struct {
	IsClean bool     `json:"isClean"`
	Threats []string `json:"threats,omitempty"`
}

// Sanitize reports all threat categories present in text, not just the first.
func (v *PromptValidator) Sanitize(text string) SanitizeResult {
	if strings.TrimSpace(text) == "" {
		return SanitizeResult{IsClean: false, Threats: []string{ThreatEmpty}}
	}

	var threats []string
	if len(text) > v.maxLength {
		threats = append(threats, ThreatTooLong)
	}
	for _, rule := range threatRules {
		for _, p := range rule.patterns {
			if p.MatchString(text) {
				threats = append(threats, rule.category)
				break
			}
		}
	}
	return SanitizeResult{IsClean: len(threats) == 0, Threats: threats}
}
