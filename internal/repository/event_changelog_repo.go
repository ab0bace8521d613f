package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

// EventChangelogRepository append-only audit trail
type EventChangelogRepository interface {
	AppendEntry(ctx context.Context, q database.Runner, e *domain.EventChangelogEntry) (int64, error)

	// ListEntries returns entries newest first.
	ListEntries(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventChangelogEntry, error)
}
