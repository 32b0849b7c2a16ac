package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/model"
	"github.com/fieldcrew/opsuite/services/scheduling-service/internal/recurrence"
)

const (
	defaultListWindow = 31 * 24 * time.Hour
	maxListWindow     = 366 * 24 * time.Hour
)

type timeBlockResponse struct {
	ID         string          `json:"id"`
	TemplateID string          `json:"template_id"`
	Derived    bool            `json:"derived"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Title      string          `json:"title"`
	Kind       model.BlockKind `json:"kind"`
	// Block is the template the occurrence came from.
	Block model.TimeBlock `json:"template"`
}

func toTimeBlockResponse(in recurrence.Instance) timeBlockResponse {
	return timeBlockResponse{
		ID:         in.ID,
		TemplateID: in.TemplateID,
		Derived:    in.Derived,
		Start:      in.Start.UTC(),
		End:        in.End.UTC(),
		Title:      in.Block.Title,
		Kind:       in.Block.Kind,
		Block:      in.Block,
	}
}

// ListTimeBlocks returns expanded occurrences for [from, to). Both are
// RFC3339; from defaults to now and to to from plus 31 days.
func (h *Handler) ListTimeBlocks(w http.ResponseWriter, r *http.Request) {
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	from := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from (expected RFC3339)", http.StatusBadRequest)
			return
		}
		from = t
	}
	to := from.Add(defaultListWindow)
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to (expected RFC3339)", http.StatusBadRequest)
			return
		}
		to = t
	}
	if !from.Before(to) || to.Sub(from) > maxListWindow {
		http.Error(w, "from must be before to and the range at most 366 days", http.StatusBadRequest)
		return
	}

	instances, err := h.svc.ListTimeBlocks(r.Context(), businessID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]timeBlockResponse, 0, len(instances))
	for _, in := range instances {
		out = append(out, toTimeBlockResponse(in))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	var req struct {
		Title           string                  `json:"title"`
		Start           time.Time               `json:"start"`
		End             time.Time               `json:"end"`
		Kind            model.BlockKind         `json:"kind"`
		Description     string                  `json:"description"`
		Recurring       bool                    `json:"is_recurring"`
		Pattern         model.RecurrencePattern `json:"recurrence_pattern"`
		RecurrenceEnd   *time.Time              `json:"recurrence_end"`
		OccurrenceCount *int                    `json:"occurrence_count"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Kind == "" {
		req.Kind = model.BlockUnavailable
	}

	b, err := h.svc.CreateTimeBlock(r.Context(), model.TimeBlock{
		BusinessID:      businessID,
		Title:           req.Title,
		Start:           req.Start,
		End:             req.End,
		Kind:            req.Kind,
		Description:     req.Description,
		Recurring:       req.Recurring,
		Pattern:         req.Pattern,
		RecurrenceEnd:   req.RecurrenceEnd,
		OccurrenceCount: req.OccurrenceCount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	businessID, ok := businessID(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteTimeBlock(r.Context(), businessID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
