package service

// EnvelopeKind tags the shape of a data API response body.
type EnvelopeKind int

const (
	EnvelopeArray   EnvelopeKind = iota // bare JSON array
	EnvelopeResults                     // {"results": ...}
	EnvelopeData                        // {"data": ...}
	EnvelopeOther                       // anything else, including {"raw": text}
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeArray:
		return "array"
	case EnvelopeResults:
		return "results"
	case EnvelopeData:
		return "data"
	default:
		return "other"
	}
}

// Envelope is a decoded response body together with the payload it carries.
type Envelope struct {
	Kind    EnvelopeKind
	Payload any
}

// ClassifyEnvelope picks the payload out of a decoded body: the array itself,
// else .results, else .data, else the whole value.
func ClassifyEnvelope(body any) Envelope {
	switch v := body.(type) {
	case []any:
		return Envelope{Kind: EnvelopeArray, Payload: v}
	case map[string]any:
		if r, ok := v["results"]; ok && r != nil {
			return Envelope{Kind: EnvelopeResults, Payload: r}
		}
		if d, ok := v["data"]; ok && d != nil {
			return Envelope{Kind: EnvelopeData, Payload: d}
		}
	}
	return Envelope{Kind: EnvelopeOther, Payload: body}
}

// Rows returns the payload as a row list. A non-array payload is one row.
func (e Envelope) Rows() []any {
	switch v := e.Payload.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	default:
		return []any{v}
	}
}
