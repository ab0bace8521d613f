package domain

// Global role names (roles.name) checked by role_required
const (
	RoleOwner  = "Owner"
	RoleEditor = "Editor"
	RoleViewer = "Viewer"
)

// User account row (users table)
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	RoleID       *int64 `db:"role_id"`
}

// Role global role (roles table)
type Role struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
