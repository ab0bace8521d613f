package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

// EventVersionsRepository event_versions and event_version_diffs
type EventVersionsRepository interface {
	// NextVersionNumber returns MAX(version_number)+1, or 1 for an event with no history.
	NextVersionNumber(ctx context.Context, q database.Runner, eventID int64) (int, error)

	// CreateVersion inserts a snapshot. A duplicate (event_id, version_number)
	// surfaces as a conflict error.
	CreateVersion(ctx context.Context, q database.Runner, v *domain.EventVersion) (int64, error)

	GetVersion(ctx context.Context, q database.Runner, eventID int64, versionNumber int) (*domain.EventVersion, error)

	// ListVersions returns snapshots oldest first.
	ListVersions(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventVersion, error)

	CreateDiff(ctx context.Context, q database.Runner, d *domain.EventVersionDiff) (int64, error)

	GetDiff(ctx context.Context, q database.Runner, eventID int64, version1, version2 int) (*domain.EventVersionDiff, error)
}
