package service

import (
	"context"
	"testing"

	"collab-events/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var writers = []string{domain.RoleOwner, domain.RoleEditor}

func TestPermissionEvaluator_Authorize(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`FROM users u`).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Editor"))
	env.mock.ExpectQuery(`FROM users u`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("viewer"))
	env.mock.ExpectQuery(`FROM users u`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(nil))
	env.mock.ExpectQuery(`FROM users u`).WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	env.mock.ExpectQuery(`FROM users u`).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("OWNER"))

	ctx := context.Background()
	assert.NoError(t, env.evaluator.Authorize(ctx, 1, writers))
	assert.True(t, domain.IsKind(env.evaluator.Authorize(ctx, 2, writers), domain.KindAuthorization))
	assert.True(t, domain.IsKind(env.evaluator.Authorize(ctx, 3, writers), domain.KindAuthorization))
	assert.True(t, domain.IsKind(env.evaluator.Authorize(ctx, 4, writers), domain.KindAuthorization))
	assert.NoError(t, env.evaluator.Authorize(ctx, 5, writers))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestPermissionEvaluator_AuthorizeEvent(t *testing.T) {
	event := &domain.Event{ID: 11, OwnerUserID: 7}

	tests := []struct {
		name    string
		userID  int64
		grant   string
		access  EventAccess
		allowed bool
	}{
		{"editor writes", 8, "editor", AccessWrite, true},
		{"editor cannot manage", 8, "editor", AccessManage, false},
		{"owner grant manages", 8, "owner", AccessManage, true},
		{"viewer cannot write", 8, "viewer", AccessWrite, false},
		{"no grant", 8, "", AccessWrite, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rows := sqlmock.NewRows(permCols)
			if tt.grant != "" {
				rows.AddRow(1, 11, tt.userID, tt.grant)
			}
			env.mock.ExpectQuery(`FROM event_permissions`).WithArgs(int64(11), tt.userID).WillReturnRows(rows)

			err := env.evaluator.AuthorizeEvent(context.Background(), env.gw, event, tt.userID, tt.access)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, domain.IsKind(err, domain.KindAuthorization))
			}
		})
	}
}

func TestPermissionEvaluator_AuthorizeEvent_OwnerSkipsLookup(t *testing.T) {
	env := newTestEnv(t)
	event := &domain.Event{ID: 11, OwnerUserID: 7}

	assert.NoError(t, env.evaluator.AuthorizeEvent(context.Background(), env.gw, event, 7, AccessManage))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
