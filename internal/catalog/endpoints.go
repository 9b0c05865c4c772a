package catalog

import "strings"

// Endpoint resolution strategy names.
const (
	StrategyExact      = "exact"
	StrategyNormalized = "normalized"
	StrategyRedirect   = "redirect"
	StrategyFallback   = "fallback"
)

// EndpointStrategy is one step of endpoint resolution.
type EndpointStrategy struct {
	Name    string
	Resolve func(reg *Registry, table string) (key string, ok bool)
}

// EndpointResolution is the chosen endpoint plus how it was found. Key is
// empty for the generic fallback.
type EndpointResolution struct {
	Key      string   `json:"key,omitempty"`
	Endpoint Endpoint `json:"endpoint"`
	Strategy string   `json:"strategy"`
}

// EndpointResolver maps a canonical table to a registry entry. It always
// returns an endpoint.
type EndpointResolver struct {
	reg        *Registry
	strategies []EndpointStrategy
}

func NewEndpointResolver(reg *Registry) *EndpointResolver {
	return &EndpointResolver{
		reg: reg,
		strategies: []EndpointStrategy{
			{Name: StrategyExact, Resolve: exactKey},
			{Name: StrategyNormalized, Resolve: normalizedKey},
			{Name: StrategyRedirect, Resolve: redirectKey},
		},
	}
}

func (r *EndpointResolver) Registry() *Registry { return r.reg }

func (r *EndpointResolver) Resolve(table string) EndpointResolution {
	for _, s := range r.strategies {
		if key, ok := s.Resolve(r.reg, table); ok {
			e, _ := r.reg.Lookup(key)
			return EndpointResolution{Key: key, Endpoint: e, Strategy: s.Name}
		}
	}
	return EndpointResolution{Endpoint: r.reg.Fallback(), Strategy: StrategyFallback}
}

func exactKey(reg *Registry, table string) (string, bool) {
	_, ok := reg.Lookup(table)
	return table, ok
}

// normalizedKey compares names with '-' and '_' removed, walking keys in
// sorted order so ties resolve the same way every time.
func normalizedKey(reg *Registry, table string) (string, bool) {
	want := stripSeparators(table)
	if want == "" {
		return "", false
	}
	for _, k := range reg.Keys() {
		if stripSeparators(k) == want {
			return k, true
		}
	}
	return "", false
}

func redirectKey(reg *Registry, table string) (string, bool) {
	return reg.Redirect(table)
}

var separatorReplacer = strings.NewReplacer("-", "", "_", "")

func stripSeparators(s string) string {
	return separatorReplacer.Replace(s)
}
