package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/availability"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
)

const maxDurationMinutes = 24 * 60

// minutesParam reads an optional positive minute count. fallback is returned
// when the parameter is absent.
func minutesParam(r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxDurationMinutes {
		return 0, false
	}
	return n, true
}

// AvailableSlots answers GET /api/v1/availability/slots with the free
// "HH:MM" starts of the day. A closed day is an empty list.
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	duration, ok := minutesParam(r, "duration_minutes", 60)
	if !ok {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}
	granularity, ok := minutesParam(r, "granularity_minutes", 0)
	if !ok {
		http.Error(w, "invalid granularity_minutes", http.StatusBadRequest)
		return
	}

	slots, err := h.engine.AvailableSlots(r.Context(), availability.Query{
		BusinessID:  businessID,
		Date:        r.URL.Query().Get("date"),
		Duration:    time.Duration(duration) * time.Minute,
		Granularity: time.Duration(granularity) * time.Minute,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// CheckSlot answers GET /api/v1/availability/check. A taken slot is a normal
// 200 response with available=false.
func (h *Handler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	duration, ok := minutesParam(r, "duration_minutes", 60)
	if !ok {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}
	granularity, ok := minutesParam(r, "granularity_minutes", 0)
	if !ok {
		http.Error(w, "invalid granularity_minutes", http.StatusBadRequest)
		return
	}

	m, err := h.validator.Check(r.Context(), availability.CheckQuery{
		BusinessID:  businessID,
		Date:        r.URL.Query().Get("date"),
		Time:        r.URL.Query().Get("time"),
		Duration:    time.Duration(duration) * time.Minute,
		Granularity: time.Duration(granularity) * time.Minute,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := map[string]any{"available": m.Available}
	if m.Available {
		resp["slot"] = m.Label
	} else {
		resp["message"] = m.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

// BookSlot answers POST /api/v1/public/book.
func (h *Handler) BookSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date               string `json:"date"`
		Time               string `json:"time"`
		DurationMinutes    int    `json:"duration_minutes"`
		GranularityMinutes int    `json:"granularity_minutes"`
		Title              string `json:"title"`
		CustomerName       string `json:"customer_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > maxDurationMinutes {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}
	if req.GranularityMinutes < 0 || req.GranularityMinutes > maxDurationMinutes {
		http.Error(w, "invalid granularity_minutes", http.StatusBadRequest)
		return
	}

	job, err := h.svc.BookSlot(r.Context(), schedule.BookingRequest{
		BusinessID:         businessID,
		Date:               req.Date,
		Time:               req.Time,
		DurationMinutes:    req.DurationMinutes,
		GranularityMinutes: req.GranularityMinutes,
		Title:              req.Title,
		CustomerName:       req.CustomerName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}
