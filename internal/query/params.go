package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Parameter names understood by the data API.
const (
	ParamAPIToken      = "api_token"
	ParamInstitutionID = "institution_id"
	ParamTable         = "table"
	ParamGroupBy       = "group_by"
	ParamLimit         = "limit"
	ParamIsAPIRequest  = "is_api_request"
	ParamOperatorID    = "operator_id"
	ParamPeriodID      = "period_id"
)

type pair struct {
	key   string
	value string
}

// Params is an ordered parameter list plus an optional explicit request body.
type Params struct {
	pairs []pair
	Body  any
}

func (p *Params) Add(key, value string) {
	p.pairs = append(p.pairs, pair{key: key, value: value})
}

// Get returns the first value stored under key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p.pairs {
		if kv.key == key {
			return kv.value, true
		}
	}
	return "", false
}

func (p Params) Len() int { return len(p.pairs) }

// Pairs returns the parameters as [key, value] tuples in emission order.
func (p Params) Pairs() [][2]string {
	out := make([][2]string, len(p.pairs))
	for i, kv := range p.pairs {
		out[i] = [2]string{kv.key, kv.value}
	}
	return out
}

// Redacted encodes like Encode with the API token value masked.
func (p Params) Redacted() string {
	out := Params{pairs: make([]pair, len(p.pairs))}
	for i, kv := range p.pairs {
		if kv.key == ParamAPIToken {
			kv.value = "***"
		}
		out.pairs[i] = kv
	}
	return out.Encode()
}

// Encode renders the parameters as a query string, preserving order.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.value))
	}
	return sb.String()
}

// ParamConfig carries the credentials and identities stamped on every call.
type ParamConfig struct {
	APIToken         string
	FallbackAPIToken string
	InstitutionID    string
	OperatorID       string
	PeriodID         string
}

// ParamBuilder turns a resolved table, its filters and the remaining fragments
// into data API parameters.
type ParamBuilder struct {
	cfg ParamConfig
}

func NewParamBuilder(cfg ParamConfig) *ParamBuilder {
	return &ParamBuilder{cfg: cfg}
}

func (b *ParamBuilder) Build(table string, filters *FilterSet, frag Fragments) Params {
	var p Params

	token := b.cfg.APIToken
	if token == "" {
		token = b.cfg.FallbackAPIToken
	}
	addIfSet(&p, ParamAPIToken, token)
	addIfSet(&p, ParamInstitutionID, b.cfg.InstitutionID)

	p.Add(ParamTable, table)

	filters.Each(func(col string, v any) {
		if list, ok := v.([]any); ok {
			for i, item := range list {
				if s, ok := formatValue(item); ok {
					p.Add(fmt.Sprintf("filters[%s][%d]", col, i), s)
				}
			}
			return
		}
		if s, ok := formatValue(v); ok {
			p.Add(fmt.Sprintf("filters[%s]", col), s)
		}
	})

	if frag.OrderBy != "" {
		p.Add("order_by[column]", frag.OrderBy)
		if frag.OrderDir != "" {
			p.Add("order_by[direction]", strings.ToLower(frag.OrderDir))
		}
	}
	addIfSet(&p, ParamGroupBy, frag.GroupBy)
	if frag.Limit != nil {
		p.Add(ParamLimit, strconv.Itoa(*frag.Limit))
	}

	p.Add(ParamIsAPIRequest, "1")
	addIfSet(&p, ParamOperatorID, b.cfg.OperatorID)
	addIfSet(&p, ParamPeriodID, b.cfg.PeriodID)
	return p
}

func addIfSet(p *Params, key, value string) {
	if value != "" {
		p.Add(key, value)
	}
}

func formatValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}
