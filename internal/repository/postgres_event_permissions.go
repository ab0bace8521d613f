package repository

import (
	"context"
	"database/sql"
	"errors"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

type PostgresEventPermissionsRepository struct{}

func NewPostgresEventPermissionsRepository() *PostgresEventPermissionsRepository {
	return &PostgresEventPermissionsRepository{}
}

var _ EventPermissionsRepository = (*PostgresEventPermissionsRepository)(nil)

func (r *PostgresEventPermissionsRepository) UpsertPermission(ctx context.Context, q database.Runner, eventID, userID int64, role string) (*domain.EventPermission, error) {
	p := domain.EventPermission{EventID: eventID, UserID: userID, Role: role}
	err := q.QueryRow(ctx, `
		INSERT INTO event_permissions (event_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id
	`, eventID, userID, role).Scan(&p.ID)
	if err != nil {
		return nil, database.Classify(err, "failed to upsert event permission")
	}
	return &p, nil
}

func (r *PostgresEventPermissionsRepository) ListPermissions(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventPermission, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_id, user_id, role
		FROM event_permissions
		WHERE event_id = $1
		ORDER BY id
	`, eventID)
	if err != nil {
		return nil, database.Classify(err, "failed to list event permissions")
	}
	defer rows.Close()

	perms := make([]*domain.EventPermission, 0)
	for rows.Next() {
		var p domain.EventPermission
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Role); err != nil {
			return nil, database.Classify(err, "failed to scan event permission")
		}
		perms = append(perms, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to iterate event permissions")
	}
	return perms, nil
}

func (r *PostgresEventPermissionsRepository) GetPermission(ctx context.Context, q database.Runner, eventID, userID int64) (*domain.EventPermission, error) {
	var p domain.EventPermission
	err := q.QueryRow(ctx, `
		SELECT id, event_id, user_id, role
		FROM event_permissions
		WHERE event_id = $1 AND user_id = $2
	`, eventID, userID).Scan(&p.ID, &p.EventID, &p.UserID, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err, "failed to get event permission")
	}
	return &p, nil
}

func (r *PostgresEventPermissionsRepository) UpdatePermission(ctx context.Context, q database.Runner, eventID, userID int64, role string) (*domain.EventPermission, error) {
	p := domain.EventPermission{EventID: eventID, UserID: userID, Role: role}
	err := q.QueryRow(ctx, `
		UPDATE event_permissions
		SET role = $1
		WHERE event_id = $2 AND user_id = $3
		RETURNING id
	`, role, eventID, userID).Scan(&p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user %d has no permission on event %d", userID, eventID)
		}
		return nil, database.Classify(err, "failed to update event permission")
	}
	return &p, nil
}

func (r *PostgresEventPermissionsRepository) DeletePermission(ctx context.Context, q database.Runner, eventID, userID int64) (bool, error) {
	n, err := q.Execute(ctx,
		`DELETE FROM event_permissions WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, database.Classify(err, "failed to delete event permission")
	}
	return n > 0, nil
}
