package intent

import "strings"

type keywordSet struct {
	tag      Tag
	weight   int
	keywords []string
}

// Order matters: on equal scores the earlier set wins.
var keywordSets = []keywordSet{
	{CreateJobDescription, 3, []string{
		"job description", "job desc", "create jd", "write jd", "write a jd",
		"draft a jd", "jd for", "job posting", "job vacancy", "lowongan",
		"deskripsi pekerjaan",
	}},
	{HumanSupport, 2, []string{
		"talk to a human", "talk to someone", "speak to", "human agent",
		"real person", "contact hr", "hr team", "customer support", "call me",
		"escalate", "hubungi", "bicara dengan",
	}},
	{Complaint, 2, []string{
		"complain", "complaint", "not working", "broken", "terrible",
		"unacceptable", "frustrated", "disappointed", "keluhan", "kecewa",
	}},
	{DataQuery, 1, []string{
		"show", "list", "how many", "count", "total", "find", "display",
		"which", "top", "report", "employee", "staff", "department", "leave",
		"attendance", "payroll", "salary", "course", "chapter", "module",
		"learner", "instructor", "enrollment", "menu", "user", "role",
		"tampilkan", "berapa", "daftar", "jumlah", "karyawan", "cuti",
	}},
	{GeneralQuestion, 1, []string{
		"what is", "how do i", "how can i", "explain", "policy", "help",
		"hello", "thanks", "thank you", "apa itu", "bagaimana",
	}},
}

// Keyword scores are heuristics; they never claim the certainty of a model.
const maxKeywordConfidence = 0.8

// Router classifies text by weighted keyword scoring.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

// Route analyses the prompt and returns the best matching intent.
func (r *Router) Route(prompt string) Intent {
	lower := strings.ToLower(prompt)

	scores := make([]int, len(keywordSets))
	total := 0
	for i, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				scores[i] += set.weight
			}
		}
		total += scores[i]
	}

	if total == 0 {
		return Intent{
			Tag:        GeneralQuestion,
			Confidence: 0.5,
			Reasoning:  "no strong keywords, defaulting to general question",
		}
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	confidence := float64(scores[best]) / float64(total)
	if confidence > maxKeywordConfidence {
		confidence = maxKeywordConfidence
	}
	return Intent{
		Tag:        keywordSets[best].tag,
		Confidence: confidence,
		Reasoning:  "keyword match for " + strings.ToLower(string(keywordSets[best].tag)),
	}
}
