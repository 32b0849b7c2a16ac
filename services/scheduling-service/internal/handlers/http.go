package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fieldcrew/opsuite/libs/httpx"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/availability"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/schedule"
)

type Handler struct {
	svc       *schedule.Service
	engine    *availability.Engine
	validator *availability.Validator
	logger    *slog.Logger
}

func New(svc *schedule.Service, engine *availability.Engine, validator *availability.Validator, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, engine: engine, validator: validator, logger: logger}
}

// Routes registers the API on mux. public wraps the unauthenticated
// endpoints (slot listing, slot check, booking); nil means no wrapping.
func (h *Handler) Routes(mux *http.ServeMux, public httpx.Middleware) {
	if public == nil {
		public = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("/api/v1/availability/slots", public(http.HandlerFunc(h.AvailableSlots)))
	mux.Handle("/api/v1/availability/check", public(http.HandlerFunc(h.CheckSlot)))
	mux.Handle("/api/v1/public/book", public(http.HandlerFunc(h.BookSlot)))

	mux.HandleFunc("/api/v1/time-blocks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListTimeBlocks(w, r)
		case http.MethodPost:
			h.CreateTimeBlock(w, r)
		case http.MethodDelete:
			h.DeleteTimeBlock(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/jobs/schedule", h.UpdateJobDate)
	mux.HandleFunc("/api/v1/jobs/status", h.UpdateJobStatus)
	mux.HandleFunc("/api/v1/business/hours", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetBusinessHours(w, r)
		case http.MethodPut:
			h.UpdateBusinessHours(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

// businessID reads and validates X-Business-Id, writing the 400 itself.
func businessID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("X-Business-Id"))
	if id == "" {
		http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "invalid X-Business-Id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service errors onto status codes. Storage failures never
// leak details to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, availability.ErrMissingBusinessID),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, availability.ErrInvalidDuration),
		errors.Is(err, availability.ErrInvalidTime),
		errors.Is(err, model.ErrInvalidTimeBlock),
		errors.Is(err, schedule.ErrInvalidStatus),
		errors.Is(err, schedule.ErrInvalidTimezone),
		errors.Is(err, schedule.ErrInvalidHours):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, schedule.ErrJobNotFound),
		errors.Is(err, schedule.ErrTimeBlockNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, availability.ErrSlotUnavailable):
		http.Error(w, availability.ErrSlotUnavailable.Error(), http.StatusConflict)
	case errors.Is(err, schedule.ErrScheduleConflict),
		errors.Is(err, schedule.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, schedule.ErrDerivedInstance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, availability.ErrUnavailable):
		h.logger.Error("scheduling data unavailable", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, availability.ErrUnavailable.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.Error("request failed", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
