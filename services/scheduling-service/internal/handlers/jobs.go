package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

// UpdateJobDate answers PUT /api/v1/jobs/schedule. A null scheduled_date
// unschedules the job; a local-midnight value makes it a date-only placeholder.
func (h *Handler) UpdateJobDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	var req struct {
		JobID         string          `json:"job_id"`
		ScheduledDate json.RawMessage `json:"scheduled_date"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		http.Error(w, "job_id required", http.StatusBadRequest)
		return
	}
	var at *time.Time
	if raw := strings.TrimSpace(string(req.ScheduledDate)); raw != "" && raw != "null" {
		var t time.Time
		if err := json.Unmarshal(req.ScheduledDate, &t); err != nil {
			http.Error(w, "invalid scheduled_date (expected RFC3339 or null)", http.StatusBadRequest)
			return
		}
		at = &t
	}

	job, err := h.svc.UpdateJobDate(r.Context(), businessID, req.JobID, at)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// UpdateJobStatus answers PUT /api/v1/jobs/status.
func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	var req struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" {
		http.Error(w, "job_id required", http.StatusBadRequest)
		return
	}

	job, err := h.svc.TransitionJobStatus(r.Context(), businessID, req.JobID, model.JobStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
