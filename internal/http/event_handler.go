package httpapi

import (
	"context"
	"net/http"

	"collab-events/internal/domain"

	"go.uber.org/zap"
)

// EventService is what EventHandler needs from the mutation engine.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID int64, fields domain.EventFields) (int64, error)
	UpdateEvent(ctx context.Context, actorID, eventID int64, fields domain.EventFields, changeSummary string) (int, error)
	CreateEventsBatch(ctx context.Context, ownerID int64, items []domain.EventFields) ([]int64, error)
	DeleteEvent(ctx context.Context, actorID, eventID int64) error
	GetEvent(ctx context.Context, eventID int64) (*domain.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*domain.Event, error)
}

type EventHandler struct {
	svc    EventService
	logger *zap.Logger
}

func NewEventHandler(svc EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// Create POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	fields, err := req.toFields()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.svc.CreateEvent(r.Context(), userIDFrom(r.Context()), fields)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, OkMessage("Event created", map[string]any{"event_id": id}))
}

// List GET /api/events?limit=&offset=
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseInt(q.Get("limit"), 10)
	offset := parseInt(q.Get("offset"), 0)

	events, err := h.svc.ListEvents(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(events))
}

// Get GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	event, err := h.svc.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(event))
}

// Update PUT /api/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req eventRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	fields, err := req.toFields()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	version, err := h.svc.UpdateEvent(r.Context(), userIDFrom(r.Context()), eventID, fields, req.ChangeSummary)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Event updated", map[string]any{"version": version}))
}

// Delete DELETE /api/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteEvent(r.Context(), userIDFrom(r.Context()), eventID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage[any]("Event deleted", nil))
}

// Batch POST /api/events/batch
func (h *EventHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	items := make([]domain.EventFields, 0, len(req.Events))
	for i := range req.Events {
		fields, err := req.Events[i].toFields()
		if err != nil {
			writeError(w, r, h.logger, domain.Validation("event %d: %s", i, describeError(err)))
			return
		}
		items = append(items, fields)
	}

	ids, err := h.svc.CreateEventsBatch(r.Context(), userIDFrom(r.Context()), items)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, OkMessage("Events created", map[string]any{"created_event_ids": ids}))
}
