package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/primus/primacron/version"
)

// HandleHealth serves the /healthz liveness endpoint: load balancers in a
// horizontally-scaled fleet poll this to decide whether a node is still
// accepting connections.
func (rt *Router) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()

	health := map[string]interface{}{
		"status":      "ok",
		"version":     info.Version,
		"commit":      info.CommitHash,
		"build_time":  info.BuildTime,
		"connections": rt.manager.ConnectionCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}
