package handlers

import (
	"net/http"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
)

func (h *Handler) GetBusinessHours(w http.ResponseWriter, r *http.Request) {
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.BusinessHours(r.Context(), businessID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateBusinessHours(w http.ResponseWriter, r *http.Request) {
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	var req struct {
		Timezone      string            `json:"timezone"`
		BusinessHours model.WeeklyHours `json:"business_hours"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateBusinessHours(r.Context(), businessID, req.Timezone, req.BusinessHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
