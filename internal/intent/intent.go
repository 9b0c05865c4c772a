package intent

// Tag is a coarse classification of what a message asks for.
type Tag string

const (
	DataQuery            Tag = "DATA_QUERY"
	CreateJobDescription Tag = "CREATE_JOB_DESCRIPTION"
	HumanSupport         Tag = "HUMAN_SUPPORT"
	Complaint            Tag = "COMPLAINT"
	GeneralQuestion      Tag = "GENERAL_QUESTION"
)

// Tags lists every known tag.
var Tags = []Tag{DataQuery, CreateJobDescription, HumanSupport, Complaint, GeneralQuestion}

func (t Tag) Valid() bool {
	for _, k := range Tags {
		if t == k {
			return true
		}
	}
	return false
}

// Intent is the classifier output that drives branching.
type Intent struct {
	Tag        Tag     `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Policy turns an intent into a branch decision.
type Policy struct {
	// FallbackConfidence is the confidence at or above which a data query may
	// not be answered by a freeform completion.
	FallbackConfidence float64
}

// ShouldRouteToAction reports whether the intent has a dedicated action handler.
func (p Policy) ShouldRouteToAction(i Intent) bool {
	return i.Tag == CreateJobDescription
}

// ShouldRouteToHuman reports whether the intent skips data retrieval and
// invites escalation.
func (p Policy) ShouldRouteToHuman(i Intent) bool {
	return i.Tag == HumanSupport || i.Tag == Complaint
}

// ShouldUseFallback reports whether a failed turn may be answered by a
// freeform completion.
func (p Policy) ShouldUseFallback(i Intent) bool {
	if i.Tag == DataQuery && i.Confidence >= p.FallbackConfidence {
		return false
	}
	return true
}
