package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/askhr/askhr/internal/models"
)

const version = "1.0.0"

// Check probes one dependency.
type Check func(ctx context.Context) error

// Probe is a named dependency check. Optional probes report their state
// without degrading the service.
type Probe struct {
	Name     string
	Check    Check
	Optional bool
}

// HealthHandler handles GET /health with dependency checks
type HealthHandler struct {
	probes  []Probe
	timeout time.Duration
}

func NewHealthHandler(probes ...Probe) *HealthHandler {
	return &HealthHandler{probes: probes, timeout: 5 * time.Second}
}

// Health answers 503 when a required dependency is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"server": "ok"}
	degraded := false

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range h.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			state := "ok"
			if err := p.Check(ctx); err != nil {
				state = "unavailable: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[p.Name] = state
			if state != "ok" && !p.Optional {
				degraded = true
			}
		}(p)
	}
	wg.Wait()

	status, code := "healthy", http.StatusOK
	if degraded {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	models.WriteJSON(w, code, models.HealthResponse{
		Status:  status,
		Version: version,
		Checks:  checks,
	})
}
