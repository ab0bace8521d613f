package service

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"collab-events/internal/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

var eventCols = []string{"id", "title", "description", "owner_user_id", "start_time", "end_time", "recurrence_rule", "created_at", "updated_at"}

var versionCols = []string{"id", "event_id", "version_number", "title", "description", "start_time", "end_time", "recurrence_rule", "updated_by", "change_summary", "created_at"}

type testEnv struct {
	mock      sqlmock.Sqlmock
	gw        *database.Gateway
	repos     Repositories
	evaluator *PermissionEvaluator
	events    *EventService
	history   *HistoryService
	collab    *CollaborationService
}

func newTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	gw := database.NewGateway(db, logger)
	repos := NewPostgresRepositories()
	evaluator := NewPermissionEvaluator(gw, repos, logger)

	env := &testEnv{
		mock:      mock,
		gw:        gw,
		repos:     repos,
		evaluator: evaluator,
		events:    NewEventService(gw, repos, evaluator, DefaultVersionMaxAttempts, logger),
		history:   NewHistoryService(gw, repos, evaluator, DefaultVersionMaxAttempts, logger),
		collab:    NewCollaborationService(gw, repos, evaluator, logger),
	}
	noWait := func(int) time.Duration { return 0 }
	env.events.writer.backoff = noWait
	env.history.writer.backoff = noWait
	return env
}

func eventRow(id int64, title string, ownerID int64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(eventCols).AddRow(id, title, nil, ownerID, testStart, nil, nil, now, now)
}

func idRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id)
}

// containsArg matches a string argument containing every fragment.
type containsArg []string

func (c containsArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, frag := range c {
		if !strings.Contains(s, frag) {
			return false
		}
	}
	return true
}
