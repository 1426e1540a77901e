package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer
	snapshot SnapshotContract
}

func NewMetrics(gatherer prometheus.Gatherer, snapshot SnapshotContract) *Metrics {
	return &Metrics{gatherer: gatherer, snapshot: snapshot}
}

// Handler serves the Prometheus exposition format.
func (h *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// Snapshot serves the domain counters as a flat JSON object.
func (h *Metrics) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot.Snapshot())
}
