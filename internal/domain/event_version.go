package domain

import "time"

// EventVersion immutable snapshot (event_versions table).
// version_number starts at 1 and grows by exactly one per mutation.
type EventVersion struct {
	ID            int64 `json:"id" db:"id"`
	EventID       int64 `json:"event_id" db:"event_id"`
	VersionNumber int   `json:"version_number" db:"version_number"`
	EventFields
	UpdatedBy     int64     `json:"updated_by" db:"updated_by"`
	ChangeSummary string    `json:"change_summary" db:"change_summary"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// EventVersionDiff stored delta for one version transition. Version1 is 0
// for the initial version of an event.
type EventVersionDiff struct {
	ID          int64     `json:"id" db:"id"`
	EventID     int64     `json:"event_id" db:"event_id"`
	Version1    int       `json:"version1" db:"version1"`
	Version2    int       `json:"version2" db:"version2"`
	DiffSummary string    `json:"diff_summary" db:"diff_summary"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
