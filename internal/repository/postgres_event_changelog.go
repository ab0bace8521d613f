package repository

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

type PostgresEventChangelogRepository struct{}

func NewPostgresEventChangelogRepository() *PostgresEventChangelogRepository {
	return &PostgresEventChangelogRepository{}
}

var _ EventChangelogRepository = (*PostgresEventChangelogRepository)(nil)

func (r *PostgresEventChangelogRepository) AppendEntry(ctx context.Context, q database.Runner, e *domain.EventChangelogEntry) (int64, error) {
	id, err := q.ExecuteReturningID(ctx, `
		INSERT INTO event_changelog (event_id, action, user_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, e.EventID, string(e.Action), e.UserID, e.Description)
	if err != nil {
		return 0, database.Classify(err, "failed to append changelog entry")
	}
	return id, nil
}

func (r *PostgresEventChangelogRepository) ListEntries(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventChangelogEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_id, action, user_id, description, created_at
		FROM event_changelog
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
	`, eventID)
	if err != nil {
		return nil, database.Classify(err, "failed to list changelog")
	}
	defer rows.Close()

	entries := make([]*domain.EventChangelogEntry, 0)
	for rows.Next() {
		var e domain.EventChangelogEntry
		var action string
		if err := rows.Scan(&e.ID, &e.EventID, &action, &e.UserID, &e.Description, &e.CreatedAt); err != nil {
			return nil, database.Classify(err, "failed to scan changelog entry")
		}
		e.Action = domain.ChangelogAction(action)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to iterate changelog")
	}
	return entries, nil
}
