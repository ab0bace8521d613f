package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

// EventPermissionsRepository per-event grants
type EventPermissionsRepository interface {
	// UpsertPermission grants role to user on event, replacing any existing grant.
	UpsertPermission(ctx context.Context, q database.Runner, eventID, userID int64, role string) (*domain.EventPermission, error)

	ListPermissions(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventPermission, error)

	// GetPermission returns nil, nil when the user holds no grant on the event.
	GetPermission(ctx context.Context, q database.Runner, eventID, userID int64) (*domain.EventPermission, error)

	UpdatePermission(ctx context.Context, q database.Runner, eventID, userID int64, role string) (*domain.EventPermission, error)

	// DeletePermission reports whether a grant was removed.
	DeletePermission(ctx context.Context, q database.Runner, eventID, userID int64) (bool, error)
}
