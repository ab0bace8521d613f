package httpapi

import (
	"context"
	"net/http"

	"collab-events/internal/domain"

	"go.uber.org/zap"
)

type CollaborationService interface {
	ShareEvent(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error)
	ListPermissions(ctx context.Context, eventID int64) ([]*domain.EventPermission, error)
	UpdatePermission(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error)
	RemovePermission(ctx context.Context, actorID, eventID, userID int64) error
}

type CollaborationHandler struct {
	svc    CollaborationService
	logger *zap.Logger
}

func NewCollaborationHandler(svc CollaborationService, logger *zap.Logger) *CollaborationHandler {
	return &CollaborationHandler{svc: svc, logger: logger}
}

// Share POST /api/events/{id}/share
func (h *CollaborationHandler) Share(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req shareRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	perm, err := h.svc.ShareEvent(r.Context(), userIDFrom(r.Context()), eventID, req.UserID, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Event shared", perm))
}

// List GET /api/events/{id}/permissions
func (h *CollaborationHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	perms, err := h.svc.ListPermissions(r.Context(), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(perms))
}

// Update PUT /api/events/{id}/permissions/{uid}
func (h *CollaborationHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	userID, err := pathInt64(r, "uid")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req permissionRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	perm, err := h.svc.UpdatePermission(r.Context(), userIDFrom(r.Context()), eventID, userID, req.Role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Permission updated", perm))
}

// Remove DELETE /api/events/{id}/permissions/{uid}
func (h *CollaborationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	userID, err := pathInt64(r, "uid")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.svc.RemovePermission(r.Context(), userIDFrom(r.Context()), eventID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage[any]("Permission removed", nil))
}
