package intent_test

import (
	"testing"

	"github.com/askhr/askhr/internal/intent"
)

func TestRouter_DataQuery(t *testing.T) {
	r := intent.NewRouter()

	prompts := []string{
		"show all active departments",
		"How many employees joined this year?",
		"list chapters of the onboarding course",
		"tampilkan daftar karyawan",
	}
	for _, p := range prompts {
		res := r.Route(p)
		if res.Tag != intent.DataQuery {
			t.Errorf("expected DATA_QUERY for %q, got %q (confidence %.2f: %s)",
				p, res.Tag, res.Confidence, res.Reasoning)
		}
	}
}

func TestRouter_Actions(t *testing.T) {
	r := intent.NewRouter()

	tests := []struct {
		prompt string
		want   intent.Tag
	}{
		{"please write a job description for a backend engineer", intent.CreateJobDescription},
		{"I want to talk to a human", intent.HumanSupport},
		{"the leave form is broken and I'm frustrated", intent.Complaint},
		{"hello there", intent.GeneralQuestion},
	}
	for _, tt := range tests {
		res := r.Route(tt.prompt)
		if res.Tag != tt.want {
			t.Errorf("Route(%q) = %q, want %q", tt.prompt, res.Tag, tt.want)
		}
		if res.Reasoning == "" {
			t.Error("reasoning should not be empty")
		}
	}
}

func TestRouter_ConfidenceCapped(t *testing.T) {
	res := intent.NewRouter().Route("show all active departments")
	if res.Confidence <= 0 || res.Confidence > 0.8 {
		t.Errorf("keyword confidence should be in (0, 0.8], got %.2f", res.Confidence)
	}
}

func TestRouter_NoKeywords(t *testing.T) {
	res := intent.NewRouter().Route("xyzzy")
	if res.Tag != intent.GeneralQuestion {
		t.Errorf("default should be GENERAL_QUESTION, got %s", res.Tag)
	}
	if res.Confidence != 0.5 {
		t.Errorf("default confidence should be 0.5, got %.2f", res.Confidence)
	}
}

func TestPolicy(t *testing.T) {
	p := intent.Policy{FallbackConfidence: 0.85}

	tests := []struct {
		in       intent.Intent
		action   bool
		human    bool
		fallback bool
	}{
		{intent.Intent{Tag: intent.DataQuery, Confidence: 0.9}, false, false, false},
		{intent.Intent{Tag: intent.DataQuery, Confidence: 0.85}, false, false, false},
		{intent.Intent{Tag: intent.DataQuery, Confidence: 0.84}, false, false, true},
		{intent.Intent{Tag: intent.CreateJobDescription, Confidence: 0.99}, true, false, true},
		{intent.Intent{Tag: intent.HumanSupport, Confidence: 0.99}, false, true, true},
		{intent.Intent{Tag: intent.Complaint, Confidence: 0.4}, false, true, true},
		{intent.Intent{Tag: intent.GeneralQuestion, Confidence: 0.99}, false, false, true},
	}
	for _, tt := range tests {
		if got := p.ShouldRouteToAction(tt.in); got != tt.action {
			t.Errorf("ShouldRouteToAction(%v) = %v", tt.in, got)
		}
		if got := p.ShouldRouteToHuman(tt.in); got != tt.human {
			t.Errorf("ShouldRouteToHuman(%v) = %v", tt.in, got)
		}
		if got := p.ShouldUseFallback(tt.in); got != tt.fallback {
			t.Errorf("ShouldUseFallback(%v) = %v", tt.in, got)
		}
	}
}
