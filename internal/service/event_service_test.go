package service

import (
	"context"
	"errors"
	"testing"

	"collab-events/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_CreateEvent(t *testing.T) {
	env := newTestEnv(t)
	start := testStart

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs("Standup", nil, int64(7), sqlmock.AnyArg(), nil, nil).
		WillReturnRows(idRow(11))
	env.mock.ExpectQuery(`INSERT INTO event_versions`).
		WithArgs(int64(11), 1, "Standup", nil, sqlmock.AnyArg(), nil, nil, int64(7), "Initial event creation").
		WillReturnRows(idRow(1))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).
		WithArgs(int64(11), "create", int64(7), sqlmock.AnyArg()).
		WillReturnRows(idRow(1))
	env.mock.ExpectQuery(`INSERT INTO event_version_diffs`).
		WithArgs(int64(11), 0, 1, "Initial version created").
		WillReturnRows(idRow(1))
	env.mock.ExpectCommit()

	id, err := env.events.CreateEvent(context.Background(), 7, domain.EventFields{
		Title:     "  Standup ",
		StartTime: &start,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_CreateEvent_ValidationWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	start := testStart
	end := start.Add(-1)

	cases := []domain.EventFields{
		{StartTime: &start},
		{Title: "No start"},
		{Title: "Backwards", StartTime: &start, EndTime: &end},
	}
	for _, f := range cases {
		_, err := env.events.CreateEvent(context.Background(), 7, f)
		assert.True(t, domain.IsKind(err, domain.KindValidation), "fields %+v", f)
	}
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_CreateEvent_RollsBackOnStorageError(t *testing.T) {
	env := newTestEnv(t)
	start := testStart

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`INSERT INTO events`).WillReturnRows(idRow(11))
	env.mock.ExpectQuery(`INSERT INTO event_versions`).WillReturnError(errors.New("disk full"))
	env.mock.ExpectRollback()

	_, err := env.events.CreateEvent(context.Background(), 7, domain.EventFields{Title: "x", StartTime: &start})
	assert.True(t, domain.IsKind(err, domain.KindStorage))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func expectUpdateAttempt(env *testEnv, next int, versionErr error) {
	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(11)).WillReturnRows(eventRow(11, "Standup", 7))
	env.mock.ExpectQuery(`COALESCE`).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(next))
	env.mock.ExpectExec(`UPDATE events`).
		WithArgs("Standup v2", nil, nil, nil, nil, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if versionErr != nil {
		env.mock.ExpectQuery(`INSERT INTO event_versions`).WillReturnError(versionErr)
		env.mock.ExpectRollback()
		return
	}
	env.mock.ExpectQuery(`INSERT INTO event_versions`).
		WithArgs(int64(11), next, "Standup v2", nil, nil, nil, nil, int64(7), "Event updated").
		WillReturnRows(idRow(int64(next)))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).
		WithArgs(int64(11), "update", int64(7), containsArg{"version"}).
		WillReturnRows(idRow(2))
	env.mock.ExpectQuery(`INSERT INTO event_version_diffs`).
		WithArgs(int64(11), next-1, next, containsArg{`title: "Standup" -> "Standup v2"`, "start_time:"}).
		WillReturnRows(idRow(2))
	env.mock.ExpectCommit()
}

func TestEventService_UpdateEvent(t *testing.T) {
	env := newTestEnv(t)
	expectUpdateAttempt(env, 2, nil)

	v, err := env.events.UpdateEvent(context.Background(), 7, 11, domain.EventFields{Title: "Standup v2"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_UpdateEvent_RetriesVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	dup := &pq.Error{Code: "23505", Constraint: "event_versions_event_version_key"}
	expectUpdateAttempt(env, 2, dup)
	expectUpdateAttempt(env, 3, nil)

	v, err := env.events.UpdateEvent(context.Background(), 7, 11, domain.EventFields{Title: "Standup v2"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_UpdateEvent_ConflictSurfacesAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	dup := &pq.Error{Code: "23505", Constraint: "event_versions_event_version_key"}
	for i := 0; i < DefaultVersionMaxAttempts; i++ {
		expectUpdateAttempt(env, 2, dup)
	}

	_, err := env.events.UpdateEvent(context.Background(), 7, 11, domain.EventFields{Title: "Standup v2"}, "")
	assert.True(t, domain.IsKind(err, domain.KindConflict))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_UpdateEvent_NotFound(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(404)).WillReturnRows(sqlmock.NewRows(eventCols))
	env.mock.ExpectRollback()

	_, err := env.events.UpdateEvent(context.Background(), 7, 404, domain.EventFields{Title: "x"}, "")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_UpdateEvent_ViewerDenied(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(11)).WillReturnRows(eventRow(11, "Standup", 7))
	env.mock.ExpectQuery(`FROM event_permissions`).
		WithArgs(int64(11), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "role"}).AddRow(1, 11, 8, "viewer"))
	env.mock.ExpectRollback()

	_, err := env.events.UpdateEvent(context.Background(), 8, 11, domain.EventFields{Title: "x"}, "")
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_UpdateEvent_CustomSummary(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(eventRow(11, "Standup", 7))
	env.mock.ExpectQuery(`FROM event_permissions`).
		WithArgs(int64(11), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "role"}).AddRow(1, 11, 8, "editor"))
	env.mock.ExpectQuery(`COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	env.mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`INSERT INTO event_versions`).
		WithArgs(int64(11), 2, "Standup", nil, nil, nil, nil, int64(8), "moved to Tuesday").
		WillReturnRows(idRow(2))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).WillReturnRows(idRow(2))
	env.mock.ExpectQuery(`INSERT INTO event_version_diffs`).WillReturnRows(idRow(2))
	env.mock.ExpectCommit()

	v, err := env.events.UpdateEvent(context.Background(), 8, 11, domain.EventFields{Title: "Standup"}, "moved to Tuesday")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func expectCreate(env *testEnv, id int64, title string) {
	env.mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(title, nil, int64(7), sqlmock.AnyArg(), nil, nil).
		WillReturnRows(idRow(id))
	env.mock.ExpectQuery(`INSERT INTO event_versions`).WillReturnRows(idRow(id))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).WillReturnRows(idRow(id))
	env.mock.ExpectQuery(`INSERT INTO event_version_diffs`).WillReturnRows(idRow(id))
}

func TestEventService_CreateEventsBatch(t *testing.T) {
	env := newTestEnv(t)
	start := testStart

	env.mock.ExpectBegin()
	expectCreate(env, 21, "A")
	expectCreate(env, 22, "B")
	env.mock.ExpectCommit()

	ids, err := env.events.CreateEventsBatch(context.Background(), 7, []domain.EventFields{
		{Title: "A", StartTime: &start},
		{Title: "B", StartTime: &start},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{21, 22}, ids)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_CreateEventsBatch_ValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	start := testStart

	_, err := env.events.CreateEventsBatch(context.Background(), 7, []domain.EventFields{
		{Title: "A", StartTime: &start},
		{Title: "B"},
	})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.Contains(t, err.Error(), "event 1")

	_, err = env.events.CreateEventsBatch(context.Background(), 7, nil)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_CreateEventsBatch_AbortsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	start := testStart

	env.mock.ExpectBegin()
	expectCreate(env, 21, "A")
	env.mock.ExpectQuery(`INSERT INTO events`).WillReturnError(errors.New("connection reset"))
	env.mock.ExpectRollback()

	ids, err := env.events.CreateEventsBatch(context.Background(), 7, []domain.EventFields{
		{Title: "A", StartTime: &start},
		{Title: "B", StartTime: &start},
	})
	assert.Nil(t, ids)
	assert.True(t, domain.IsKind(err, domain.KindStorage))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_DeleteEvent(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(11)).WillReturnRows(eventRow(11, "Standup", 7))
	env.mock.ExpectQuery(`INSERT INTO event_changelog`).
		WithArgs(int64(11), "delete", int64(7), containsArg{"Standup", "deleted"}).
		WillReturnRows(idRow(5))
	env.mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	require.NoError(t, env.events.DeleteEvent(context.Background(), 7, 11))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestEventService_ListEvents_ClampsPaging(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`FROM events`).WithArgs(MaxListLimit, 0).WillReturnRows(sqlmock.NewRows(eventCols))
	env.mock.ExpectQuery(`FROM events`).WithArgs(DefaultListLimit, 0).WillReturnRows(eventRow(1, "A", 7))

	events, err := env.events.ListEvents(context.Background(), 500, -3)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = env.events.ListEvents(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
