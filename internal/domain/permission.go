package domain

import "strings"

// Per-event roles stored in event_permissions.role
const (
	PermissionOwner  = "owner"
	PermissionEditor = "editor"
	PermissionViewer = "viewer"
)

// EventPermission per-event grant, unique per (event_id, user_id)
type EventPermission struct {
	ID      int64  `json:"id" db:"id"`
	EventID int64  `json:"event_id" db:"event_id"`
	UserID  int64  `json:"user_id" db:"user_id"`
	Role    string `json:"role" db:"role"`
}

// NormalizePermissionRole lower-cases role and reports whether it is a known grant.
func NormalizePermissionRole(role string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case PermissionOwner, PermissionEditor, PermissionViewer:
		return r, true
	}
	return r, false
}
