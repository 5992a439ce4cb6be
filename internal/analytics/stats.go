package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "patientcore/pkg/domain-errors"
	"patientcore/pkg/platform/httputil"
)

// StatsResponse is served by GET /stats.
type StatsResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// RegisterStats mounts the read side of the projection.
func RegisterStats(r chi.Router, projection Projection) {
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		counts, err := projection.Counts(req.Context())
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "projection unavailable"))
			return
		}
		resp := StatsResponse{Counts: make(map[string]int64, len(counts))}
		for k, v := range counts {
			resp.Counts[string(k)] = v
			resp.Total += v
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	})
}
