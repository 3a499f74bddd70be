package health

import (
	"net/http"
	"time"

	"github.com/noah-isme/pricing-engine/internal/common"
)

// Check reports the readiness of one engine dependency. An empty error
// string means the component is healthy.
type Check func() error

// Handler serves liveness and readiness probes. Liveness always succeeds
// while the process is up; readiness runs the registered component checks.
type Handler struct {
	Version string
	Checks  map[string]Check
	Now     func() time.Time
}

// New constructs a probe handler. A nil clock defaults to time.Now.
func New(version string, checks map[string]Check) *Handler {
	return &Handler{Version: version, Checks: checks, Now: time.Now}
}

// Live responds 200 as long as the process can serve requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"time":    h.now().UTC().Format(time.RFC3339),
	})
}

// Ready runs every registered check and reports per-component status.
// Any failing check turns the probe into a 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	components := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if check == nil {
			continue
		}
		if err := check(); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{
		"status":     "ready",
		"version":    h.Version,
		"components": components,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	common.JSON(w, status, body)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
