package handlers

import (
	"context"
	"net/http"
	"time"
)

// Health: GET /healthz
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := map[string]string{}
	for name, probe := range a.checks {
		if err := probe(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSONResp(w, code, map[string]any{"status": status, "checks": checks})
}
