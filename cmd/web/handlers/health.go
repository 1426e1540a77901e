package handlers

import "net/http"

type Health struct {
	health HealthContract
}

func NewHealth(healthSvc HealthContract) *Health { return &Health{health: healthSvc} }

func (h *Health) Handler(w http.ResponseWriter, r *http.Request) {
	res := h.health.Check(r.Context())
	status := http.StatusOK
	if !res.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}
