package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"collab-events/internal/domain"

	"go.uber.org/zap"
)

type HistoryService interface {
	GetVersion(ctx context.Context, eventID int64, versionNumber int) (*domain.EventVersion, error)
	ListVersions(ctx context.Context, eventID int64) ([]*domain.EventVersion, error)
	GetChangelog(ctx context.Context, eventID int64) ([]*domain.EventChangelogEntry, error)
	GetDiff(ctx context.Context, eventID int64, version1, version2 int) (*domain.EventVersionDiff, error)
	RollbackToVersion(ctx context.Context, actorID, eventID int64, versionNumber int) (int, error)
	ExportChangelog(ctx context.Context, eventID int64) ([]byte, error)
}

type HistoryHandler struct {
	svc    HistoryService
	logger *zap.Logger
}

func NewHistoryHandler(svc HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

// ListVersions GET /api/events/{id}/history
func (h *HistoryHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	versions, err := h.svc.ListVersions(r.Context(), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(versions))
}

// GetVersion GET /api/events/{id}/history/{version}
func (h *HistoryHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	version, err := pathInt(r, "version")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	v, err := h.svc.GetVersion(r.Context(), eventID, version)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(v))
}

// Rollback POST /api/events/{id}/rollback/{version}
func (h *HistoryHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	target, err := pathInt(r, "version")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	version, err := h.svc.RollbackToVersion(r.Context(), userIDFrom(r.Context()), eventID, target)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(
		fmt.Sprintf("Rolled back to version %d", target),
		map[string]any{"version": version},
	))
}

// Changelog GET /api/events/{id}/changelog
func (h *HistoryHandler) Changelog(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entries, err := h.svc.GetChangelog(r.Context(), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}

// ExportChangelog GET /api/events/{id}/changelog/export
func (h *HistoryHandler) ExportChangelog(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := h.svc.ExportChangelog(r.Context(), eventID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filename := "event_" + strconv.FormatInt(eventID, 10) + "_changelog.xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Diff GET /api/events/{id}/diff/{v1}/{v2}
// A pair with no stored diff is answered 200 with an error envelope.
func (h *HistoryHandler) Diff(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	v1, err := pathInt(r, "v1")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	v2, err := pathInt(r, "v2")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	diff, err := h.svc.GetDiff(r.Context(), eventID, v1, v2)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			writeJSON(w, http.StatusOK, Fail("Diff not found"))
			return
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(diff))
}
