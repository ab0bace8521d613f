package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

// UsersRepository accounts and their global role
type UsersRepository interface {
	// CreateUser inserts the account with the named global role. Duplicate
	// username or email surfaces as a conflict error.
	CreateUser(ctx context.Context, q database.Runner, username, email, passwordHash, roleName string) (int64, error)

	GetUser(ctx context.Context, q database.Runner, userID int64) (*domain.User, error)

	// GetUserByLogin matches username or email.
	GetUserByLogin(ctx context.Context, q database.Runner, login string) (*domain.User, error)

	UserExists(ctx context.Context, q database.Runner, userID int64) (bool, error)

	// GetRoleName returns the user's global role name, or "" when none is assigned.
	GetRoleName(ctx context.Context, q database.Runner, userID int64) (string, error)
}
