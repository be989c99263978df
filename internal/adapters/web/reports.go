package web

import "net/http"

// apiGrowerRevenue handles GET /api/growers/{id}/revenue?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) apiGrowerRevenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	report, err := h.svc.GetGrowerRevenue(r.Context(), id, q.Get("start"), q.Get("end"))
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// apiGrowerPerformance handles GET /api/growers/{id}/performance.
func (h *Handler) apiGrowerPerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	report, err := h.svc.GetGrowerPerformance(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, false)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
