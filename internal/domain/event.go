package domain

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// EventFields are the mutable columns of an event. Every version snapshot
// stores exactly this set.
type EventFields struct {
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description" db:"description"`
	StartTime      *time.Time `json:"start_time" db:"start_time"`
	EndTime        *time.Time `json:"end_time" db:"end_time"`
	RecurrenceRule *string    `json:"recurrence_rule" db:"recurrence_rule"`
}

// Event current-state row (events table)
type Event struct {
	ID int64 `json:"id" db:"id"`
	EventFields
	OwnerUserID int64     `json:"owner_user_id" db:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the field-level rules shared by create, update and batch.
// requireStart is set on the create paths only: an update overwrites every
// column and may clear start_time.
func (f *EventFields) Validate(requireStart bool) error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return Validation("title is required")
	}
	if requireStart && f.StartTime == nil {
		return Validation("start_time is required")
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return Validation("end_time must not be before start_time")
	}
	if f.RecurrenceRule != nil {
		rule := strings.TrimSpace(*f.RecurrenceRule)
		if rule == "" {
			f.RecurrenceRule = nil
		} else {
			if _, err := rrule.StrToRRule(rule); err != nil {
				return Validation("invalid recurrence_rule: %v", err)
			}
			f.RecurrenceRule = &rule
		}
	}
	return nil
}
