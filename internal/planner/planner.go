// Package planner compiles LLM-produced SQL into a data API call.
//
// A plan is built in five pure steps: fragment extraction, predicate
// interpretation, table resolution, endpoint resolution and parameter
// assembly. Nothing here touches the network.
package planner

import (
	"net/http"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/query"
)

// Plan is everything needed to execute one attempt, plus how it was derived.
type Plan struct {
	SQL       string                     `json:"sql"`
	Fragments query.Fragments            `json:"fragments"`
	Filters   *query.FilterSet           `json:"filters"`
	Table     catalog.TableResolution    `json:"table"`
	Endpoint  catalog.EndpointResolution `json:"endpoint"`
	Params    query.Params               `json:"-"`
	Query     string                     `json:"query"`
	// FallbackBody is sent on POST when Params carries no explicit body.
	FallbackBody any `json:"fallbackBody,omitempty"`
}

type Planner struct {
	Tables    *catalog.TableResolver
	Endpoints *catalog.EndpointResolver
	Params    *query.ParamBuilder
}

func New(tables *catalog.TableResolver, endpoints *catalog.EndpointResolver, params *query.ParamBuilder) *Planner {
	return &Planner{Tables: tables, Endpoints: endpoints, Params: params}
}

// Plan compiles sql. When no table can be resolved it returns the partial
// plan (fragments and filters) together with an error wrapping
// catalog.ErrNoTable.
func (p *Planner) Plan(sql, nlQuery string) (*Plan, error) {
	frag := query.Parse(sql)
	plan := &Plan{
		SQL:       sql,
		Fragments: frag,
		Filters:   query.ParseFilters(frag.Where),
	}

	table, err := p.Tables.Resolve(frag, nlQuery)
	if err != nil {
		return plan, err
	}
	plan.Table = table
	plan.Endpoint = p.Endpoints.Resolve(table.Table)
	plan.Params = p.Params.Build(table.Table, plan.Filters, frag)
	plan.Query = plan.Params.Encode()

	if plan.Endpoint.Endpoint.Method == http.MethodPost {
		body := map[string]any{"table": table.Table}
		if plan.Filters.Len() > 0 {
			body["filters"] = plan.Filters
		}
		plan.FallbackBody = body
	}
	return plan, nil
}
