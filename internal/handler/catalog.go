package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askhr/askhr/internal/catalog"
	"github.com/askhr/askhr/internal/models"
	"github.com/askhr/askhr/internal/planner"
)

// CatalogHandler exposes the table and endpoint catalog and a dry-run compiler.
type CatalogHandler struct {
	planner *planner.Planner
}

func NewCatalogHandler(p *planner.Planner) *CatalogHandler {
	return &CatalogHandler{planner: p}
}

// Tables handles GET /api/v1/catalog/tables
func (h *CatalogHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables := catalog.CanonicalTables()
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"tables":       tables,
		"aliases":      catalog.Aliases(),
		"column_hints": catalog.ColumnHints(),
		"strategies":   h.planner.Tables.Strategies(),
		"count":        len(tables),
	})
}

// Endpoints handles GET /api/v1/catalog/endpoints
func (h *CatalogHandler) Endpoints(w http.ResponseWriter, r *http.Request) {
	reg := h.planner.Endpoints.Registry()
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"endpoints": reg.Entries(),
		"fallback":  reg.Fallback(),
		"count":     reg.Len(),
	})
}

// Compile handles POST /api/v1/catalog/compile. It plans without calling the
// data API; an unresolvable table answers 422 with the partial plan.
func (h *CatalogHandler) Compile(w http.ResponseWriter, r *http.Request) {
	var req models.CompileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		models.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}

	plan, err := h.planner.Plan(req.SQL, req.Query)
	plan.Query = plan.Params.Redacted()
	if err != nil {
		models.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"status": "error",
			"error":  err.Error(),
			"plan":   plan,
		})
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"plan":   plan,
	})
}
