package repository

import (
	"context"
	"database/sql"
	"errors"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

const eventColumns = `id, title, description, owner_user_id, start_time, end_time, recurrence_rule, created_at, updated_at`

// PostgresEventsRepository events table
type PostgresEventsRepository struct{}

func NewPostgresEventsRepository() *PostgresEventsRepository {
	return &PostgresEventsRepository{}
}

var _ EventsRepository = (*PostgresEventsRepository)(nil)

func (r *PostgresEventsRepository) CreateEvent(ctx context.Context, q database.Runner, ownerID int64, fields domain.EventFields) (int64, error) {
	query := `
		INSERT INTO events (title, description, owner_user_id, start_time, end_time, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	id, err := q.ExecuteReturningID(ctx, query,
		fields.Title,
		stringPtrToAny(fields.Description),
		ownerID,
		timePtrToAny(fields.StartTime),
		timePtrToAny(fields.EndTime),
		stringPtrToAny(fields.RecurrenceRule),
	)
	if err != nil {
		return 0, database.Classify(err, "failed to create event")
	}
	return id, nil
}

func (r *PostgresEventsRepository) GetEvent(ctx context.Context, q database.Runner, eventID int64) (*domain.Event, error) {
	row := q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID)
	return r.scanOne(row, eventID)
}

func (r *PostgresEventsRepository) LockEvent(ctx context.Context, q database.Runner, eventID int64) (*domain.Event, error) {
	row := q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
	return r.scanOne(row, eventID)
}

func (r *PostgresEventsRepository) ListEvents(ctx context.Context, q database.Runner, limit, offset int) ([]*domain.Event, error) {
	rows, err := q.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, database.Classify(err, "failed to list events")
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, database.Classify(err, "failed to scan event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to iterate events")
	}
	return events, nil
}

func (r *PostgresEventsRepository) UpdateEvent(ctx context.Context, q database.Runner, eventID int64, fields domain.EventFields) error {
	query := `
		UPDATE events
		SET title = $1,
			description = $2,
			start_time = $3,
			end_time = $4,
			recurrence_rule = $5,
			updated_at = NOW()
		WHERE id = $6
	`
	n, err := q.Execute(ctx, query,
		fields.Title,
		stringPtrToAny(fields.Description),
		timePtrToAny(fields.StartTime),
		timePtrToAny(fields.EndTime),
		stringPtrToAny(fields.RecurrenceRule),
		eventID,
	)
	if err != nil {
		return database.Classify(err, "failed to update event")
	}
	if n == 0 {
		return domain.NotFound("event %d not found", eventID)
	}
	return nil
}

func (r *PostgresEventsRepository) DeleteEvent(ctx context.Context, q database.Runner, eventID int64) error {
	n, err := q.Execute(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return database.Classify(err, "failed to delete event")
	}
	if n == 0 {
		return domain.NotFound("event %d not found", eventID)
	}
	return nil
}

func (r *PostgresEventsRepository) scanOne(row rowScanner, eventID int64) (*domain.Event, error) {
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("event %d not found", eventID)
		}
		return nil, database.Classify(err, "failed to get event")
	}
	return e, nil
}

func scanEvent(s rowScanner) (*domain.Event, error) {
	var e domain.Event
	var description, recurrence sql.NullString
	var start, end sql.NullTime
	if err := s.Scan(
		&e.ID,
		&e.Title,
		&description,
		&e.OwnerUserID,
		&start,
		&end,
		&recurrence,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Description = nullStringPtr(description)
	e.StartTime = nullTimePtr(start)
	e.EndTime = nullTimePtr(end)
	e.RecurrenceRule = nullStringPtr(recurrence)
	return &e, nil
}
