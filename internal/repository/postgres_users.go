package repository

import (
	"context"
	"database/sql"
	"errors"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

type PostgresUsersRepository struct{}

func NewPostgresUsersRepository() *PostgresUsersRepository {
	return &PostgresUsersRepository{}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, q database.Runner, username, email, passwordHash, roleName string) (int64, error) {
	id, err := q.ExecuteReturningID(ctx, `
		INSERT INTO users (username, email, password_hash, role_id)
		VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4))
		RETURNING id
	`, username, email, passwordHash, roleName)
	if err != nil {
		return 0, database.Classify(err, "failed to create user")
	}
	return id, nil
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, q database.Runner, userID int64) (*domain.User, error) {
	row := q.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role_id
		FROM users
		WHERE id = $1
	`, userID)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user %d not found", userID)
		}
		return nil, database.Classify(err, "failed to get user")
	}
	return u, nil
}

func (r *PostgresUsersRepository) GetUserByLogin(ctx context.Context, q database.Runner, login string) (*domain.User, error) {
	row := q.QueryRow(ctx, `
		SELECT id, username, email, password_hash, role_id
		FROM users
		WHERE username = $1 OR email = $1
		LIMIT 1
	`, login)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user %q not found", login)
		}
		return nil, database.Classify(err, "failed to get user")
	}
	return u, nil
}

func (r *PostgresUsersRepository) UserExists(ctx context.Context, q database.Runner, userID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, database.Classify(err, "failed to check user")
	}
	return exists, nil
}

func (r *PostgresUsersRepository) GetRoleName(ctx context.Context, q database.Runner, userID int64) (string, error) {
	var name sql.NullString
	err := q.QueryRow(ctx, `
		SELECT r.name
		FROM users u
		LEFT JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.NotFound("user %d not found", userID)
		}
		return "", database.Classify(err, "failed to get user role")
	}
	return name.String, nil
}

func scanUser(s rowScanner) (*domain.User, error) {
	var u domain.User
	var roleID sql.NullInt64
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roleID); err != nil {
		return nil, err
	}
	if roleID.Valid {
		id := roleID.Int64
		u.RoleID = &id
	}
	return &u, nil
}
