package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

// EventsRepository current-state event rows
type EventsRepository interface {
	// CreateEvent inserts the row and returns the generated id.
	CreateEvent(ctx context.Context, q database.Runner, ownerID int64, fields domain.EventFields) (int64, error)

	GetEvent(ctx context.Context, q database.Runner, eventID int64) (*domain.Event, error)

	// LockEvent reads the row with SELECT ... FOR UPDATE. Only meaningful inside a
	// transaction; it serializes version-number assignment per event.
	LockEvent(ctx context.Context, q database.Runner, eventID int64) (*domain.Event, error)

	ListEvents(ctx context.Context, q database.Runner, limit, offset int) ([]*domain.Event, error)

	// UpdateEvent overwrites every mutable column with fields.
	UpdateEvent(ctx context.Context, q database.Runner, eventID int64, fields domain.EventFields) error

	DeleteEvent(ctx context.Context, q database.Runner, eventID int64) error
}
