package domain

import "time"

type ChangelogAction string

const (
	ActionCreate   ChangelogAction = "create"
	ActionUpdate   ChangelogAction = "update"
	ActionDelete   ChangelogAction = "delete"
	ActionRollback ChangelogAction = "rollback"
)

// EventChangelogEntry append-only audit record (event_changelog table)
type EventChangelogEntry struct {
	ID          int64           `json:"id" db:"id"`
	EventID     int64           `json:"event_id" db:"event_id"`
	Action      ChangelogAction `json:"action" db:"action"`
	UserID      int64           `json:"user_id" db:"user_id"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
