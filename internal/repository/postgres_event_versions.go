package repository

import (
	"context"
	"database/sql"
	"errors"

	"collab-events/internal/database"
	"collab-events/internal/domain"
)

const versionColumns = `id, event_id, version_number, title, description, start_time, end_time, recurrence_rule, updated_by, change_summary, created_at`

// PostgresEventVersionsRepository event_versions / event_version_diffs
type PostgresEventVersionsRepository struct{}

func NewPostgresEventVersionsRepository() *PostgresEventVersionsRepository {
	return &PostgresEventVersionsRepository{}
}

var _ EventVersionsRepository = (*PostgresEventVersionsRepository)(nil)

func (r *PostgresEventVersionsRepository) NextVersionNumber(ctx context.Context, q database.Runner, eventID int64) (int, error) {
	var next int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM event_versions WHERE event_id = $1`,
		eventID,
	).Scan(&next)
	if err != nil {
		return 0, database.Classify(err, "failed to compute next version number")
	}
	return next, nil
}

func (r *PostgresEventVersionsRepository) CreateVersion(ctx context.Context, q database.Runner, v *domain.EventVersion) (int64, error) {
	query := `
		INSERT INTO event_versions (
			event_id, version_number, title, description, start_time, end_time,
			recurrence_rule, updated_by, change_summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	id, err := q.ExecuteReturningID(ctx, query,
		v.EventID,
		v.VersionNumber,
		v.Title,
		stringPtrToAny(v.Description),
		timePtrToAny(v.StartTime),
		timePtrToAny(v.EndTime),
		stringPtrToAny(v.RecurrenceRule),
		v.UpdatedBy,
		v.ChangeSummary,
	)
	if err != nil {
		return 0, database.Classify(err, "failed to create event version")
	}
	return id, nil
}

func (r *PostgresEventVersionsRepository) GetVersion(ctx context.Context, q database.Runner, eventID int64, versionNumber int) (*domain.EventVersion, error) {
	row := q.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM event_versions WHERE event_id = $1 AND version_number = $2`,
		eventID, versionNumber,
	)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("version %d of event %d not found", versionNumber, eventID)
		}
		return nil, database.Classify(err, "failed to get event version")
	}
	return v, nil
}

func (r *PostgresEventVersionsRepository) ListVersions(ctx context.Context, q database.Runner, eventID int64) ([]*domain.EventVersion, error) {
	rows, err := q.Query(ctx,
		`SELECT `+versionColumns+` FROM event_versions WHERE event_id = $1 ORDER BY version_number`,
		eventID,
	)
	if err != nil {
		return nil, database.Classify(err, "failed to list event versions")
	}
	defer rows.Close()

	versions := make([]*domain.EventVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, database.Classify(err, "failed to scan event version")
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Classify(err, "failed to iterate event versions")
	}
	return versions, nil
}

func (r *PostgresEventVersionsRepository) CreateDiff(ctx context.Context, q database.Runner, d *domain.EventVersionDiff) (int64, error) {
	id, err := q.ExecuteReturningID(ctx, `
		INSERT INTO event_version_diffs (event_id, version1, version2, diff_summary)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, d.EventID, d.Version1, d.Version2, d.DiffSummary)
	if err != nil {
		return 0, database.Classify(err, "failed to create version diff")
	}
	return id, nil
}

func (r *PostgresEventVersionsRepository) GetDiff(ctx context.Context, q database.Runner, eventID int64, version1, version2 int) (*domain.EventVersionDiff, error) {
	var d domain.EventVersionDiff
	err := q.QueryRow(ctx, `
		SELECT id, event_id, version1, version2, diff_summary, created_at
		FROM event_version_diffs
		WHERE event_id = $1 AND version1 = $2 AND version2 = $3
	`, eventID, version1, version2).Scan(
		&d.ID, &d.EventID, &d.Version1, &d.Version2, &d.DiffSummary, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("no diff stored for event %d between versions %d and %d", eventID, version1, version2)
		}
		return nil, database.Classify(err, "failed to get version diff")
	}
	return &d, nil
}

func scanVersion(s rowScanner) (*domain.EventVersion, error) {
	var v domain.EventVersion
	var description, recurrence sql.NullString
	var start, end sql.NullTime
	if err := s.Scan(
		&v.ID,
		&v.EventID,
		&v.VersionNumber,
		&v.Title,
		&description,
		&start,
		&end,
		&recurrence,
		&v.UpdatedBy,
		&v.ChangeSummary,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	v.Description = nullStringPtr(description)
	v.StartTime = nullTimePtr(start)
	v.EndTime = nullTimePtr(end)
	v.RecurrenceRule = nullStringPtr(recurrence)
	return &v, nil
}
