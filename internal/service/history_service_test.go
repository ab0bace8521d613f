package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"collab-events/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestHistoryService_GetVersion_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	snapshot := func() *sqlmock.Rows {
		return sqlmock.NewRows(versionCols).
			AddRow(4, 11, 2, "Standup v2", "daily sync", testStart, nil, "FREQ=DAILY", 7, "moved", created)
	}
	for i := 0; i < 2; i++ {
		env.mock.ExpectQuery(`FROM event_versions WHERE event_id = \$1 AND version_number = \$2`).
			WithArgs(int64(11), 2).
			WillReturnRows(snapshot())
	}

	first, err := env.history.GetVersion(context.Background(), 11, 2)
	require.NoError(t, err)
	second, err := env.history.GetVersion(context.Background(), 11, 2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.VersionNumber)
	assert.Equal(t, "Standup v2", first.Title)
	require.NotNil(t, first.RecurrenceRule)
	assert.Equal(t, "FREQ=DAILY", *first.RecurrenceRule)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_GetVersion_RejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)

	for _, v := range []int{0, -1} {
		_, err := env.history.GetVersion(context.Background(), 11, v)
		assert.True(t, domain.IsKind(err, domain.KindValidation), "version %d", v)
	}
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_GetVersion_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`FROM event_versions`).WithArgs(int64(11), 9).WillReturnRows(sqlmock.NewRows(versionCols))

	_, err := env.history.GetVersion(context.Background(), 11, 9)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_ListVersions_OldestFirst(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	env.mock.ExpectQuery(`FROM event_versions WHERE event_id = \$1 ORDER BY version_number`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(versionCols).
			AddRow(1, 11, 1, "Standup", nil, testStart, nil, nil, 7, "Initial event creation", now).
			AddRow(2, 11, 2, "Standup v2", nil, testStart, nil, nil, 7, "Event updated", now).
			AddRow(3, 11, 3, "Standup", nil, testStart, nil, nil, 7, "Rollback to version 1", now))

	versions, err := env.history.ListVersions(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}
	assert.Equal(t, versions[0].Title, versions[2].Title)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_RollbackToVersion(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(11)).WillReturnRows(eventRow(11, "Standup v2", 7))
	env.mock.ExpectQuery(`FROM event_versions WHERE event_id = \$1 AND version_number = \$2`).
		WithArgs(int64(11), 1).
		WillReturnRows(sqlmock.NewRows(versionCols).
			AddRow(1, 11, 1, "Standup", "daily sync", testStart, nil, nil, 7, "Initial event creation", now))
	env.mock.ExpectQuery(`COALESCE`).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	env.mock.ExpectExec(`UPDATE events`).
		WithArgs("Standup", "daily sync", sqlmock.AnyArg(), nil, nil, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`INSERT INTO event_versions`).
		WithArgs(int64(11), 3, "Standup", "daily sync", sqlmock.AnyArg(), nil, nil, int64(7), "Rollback to version 1").
		WillReturnRows(idRow(3))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).
		WithArgs(int64(11), "rollback", int64(7), containsArg{"version 1", "version 3"}).
		WillReturnRows(idRow(3))
	env.mock.ExpectQuery(`INSERT INTO event_version_diffs`).
		WithArgs(int64(11), 2, 3, containsArg{`title: "Standup v2" -> "Standup"`, `description: null -> "daily sync"`}).
		WillReturnRows(idRow(3))
	env.mock.ExpectCommit()

	v, err := env.history.RollbackToVersion(context.Background(), 7, 11, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_RollbackToVersion_MissingVersion(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(eventRow(11, "Standup", 7))
	env.mock.ExpectQuery(`FROM event_versions`).WithArgs(int64(11), 9).WillReturnRows(sqlmock.NewRows(versionCols))
	env.mock.ExpectRollback()

	_, err := env.history.RollbackToVersion(context.Background(), 7, 11, 9)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_RollbackToVersion_RejectsNonPositive(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.history.RollbackToVersion(context.Background(), 7, 11, 0)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHistoryService_GetDiff_ExactPairOnly(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	cols := []string{"id", "event_id", "version1", "version2", "diff_summary", "created_at"}

	env.mock.ExpectQuery(`FROM event_version_diffs`).
		WithArgs(int64(11), 1, 2).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, 11, 1, 2, `title: "a" -> "b"`, now))
	env.mock.ExpectQuery(`FROM event_version_diffs`).
		WithArgs(int64(11), 2, 1).
		WillReturnRows(sqlmock.NewRows(cols))

	d, err := env.history.GetDiff(context.Background(), 11, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Version2)

	_, err = env.history.GetDiff(context.Background(), 11, 2, 1)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestHistoryService_ExportChangelog(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	env.mock.ExpectQuery(`FROM event_changelog`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "action", "user_id", "description", "created_at"}).
			AddRow(2, 11, "update", 7, "Event updated to version 2", now).
			AddRow(1, 11, "create", 7, `Event "Standup" created`, now))

	data, err := env.history.ExportChangelog(context.Background(), 11)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Event 11", "C1")
	require.NoError(t, err)
	assert.Equal(t, "Action", header)

	action, err := f.GetCellValue("Event 11", "C2")
	require.NoError(t, err)
	assert.Equal(t, "update", action)

	created, err := f.GetCellValue("Event 11", "F3")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02 10:30:00", created)
}
