package catalog

import (
	_ "embed"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed endpoints.yaml
var registryYAML []byte

// Endpoint is one data API route. URL may contain ${name} base placeholders.
type Endpoint struct {
	Method string `yaml:"method" json:"method"`
	URL    string `yaml:"url" json:"url"`
}

type registryFile struct {
	Fallback  Endpoint            `yaml:"fallback"`
	Redirects map[string]string   `yaml:"redirects"`
	Endpoints map[string]Endpoint `yaml:"endpoints"`
}

// Registry is the read-only endpoint table.
type Registry struct {
	entries   map[string]Endpoint
	keys      []string
	redirects map[string]string
	fallback  Endpoint
}

// LoadRegistry parses the embedded registry.
func LoadRegistry() (*Registry, error) {
	return ParseRegistry(registryYAML)
}

// MustLoadRegistry is LoadRegistry for program start-up.
func MustLoadRegistry() *Registry {
	r, err := LoadRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse endpoint registry: %w", err)
	}
	if f.Fallback.URL == "" {
		return nil, fmt.Errorf("endpoint registry has no fallback")
	}
	f.Fallback.Method = normalizeMethod(f.Fallback.Method)

	r := &Registry{
		entries:   make(map[string]Endpoint, len(f.Endpoints)),
		redirects: make(map[string]string, len(f.Redirects)),
		fallback:  f.Fallback,
	}
	for k, e := range f.Endpoints {
		if e.URL == "" {
			return nil, fmt.Errorf("endpoint %q has no url", k)
		}
		e.Method = normalizeMethod(e.Method)
		if e.Method != http.MethodGet && e.Method != http.MethodPost {
			return nil, fmt.Errorf("endpoint %q: unsupported method %q", k, e.Method)
		}
		r.entries[k] = e
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	for from, to := range f.Redirects {
		if _, ok := r.entries[to]; !ok {
			return nil, fmt.Errorf("redirect %q points at unknown endpoint %q", from, to)
		}
		r.redirects[from] = to
	}
	return r, nil
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}

func (r *Registry) Lookup(key string) (Endpoint, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Keys returns the registry keys in sorted order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Registry) Len() int { return len(r.entries) }

func (r *Registry) Redirect(table string) (string, bool) {
	k, ok := r.redirects[table]
	return k, ok
}

func (r *Registry) Fallback() Endpoint { return r.fallback }

// Entries returns a copy of every endpoint keyed by name.
func (r *Registry) Entries() map[string]Endpoint {
	out := make(map[string]Endpoint, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
