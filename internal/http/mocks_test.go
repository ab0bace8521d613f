package httpapi

import (
	"context"
	"errors"

	"collab-events/internal/domain"
	"collab-events/internal/service"

	"github.com/stretchr/testify/mock"
)

type mockEventService struct{ mock.Mock }

func (m *mockEventService) CreateEvent(ctx context.Context, ownerID int64, fields domain.EventFields) (int64, error) {
	args := m.Called(ctx, ownerID, fields)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEventService) UpdateEvent(ctx context.Context, actorID, eventID int64, fields domain.EventFields, changeSummary string) (int, error) {
	args := m.Called(ctx, actorID, eventID, fields, changeSummary)
	return args.Int(0), args.Error(1)
}

func (m *mockEventService) CreateEventsBatch(ctx context.Context, ownerID int64, items []domain.EventFields) ([]int64, error) {
	args := m.Called(ctx, ownerID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockEventService) DeleteEvent(ctx context.Context, actorID, eventID int64) error {
	return m.Called(ctx, actorID, eventID).Error(0)
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *mockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*domain.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

type mockHistoryService struct{ mock.Mock }

func (m *mockHistoryService) GetVersion(ctx context.Context, eventID int64, versionNumber int) (*domain.EventVersion, error) {
	args := m.Called(ctx, eventID, versionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventVersion), args.Error(1)
}

func (m *mockHistoryService) ListVersions(ctx context.Context, eventID int64) ([]*domain.EventVersion, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EventVersion), args.Error(1)
}

func (m *mockHistoryService) GetChangelog(ctx context.Context, eventID int64) ([]*domain.EventChangelogEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EventChangelogEntry), args.Error(1)
}

func (m *mockHistoryService) GetDiff(ctx context.Context, eventID int64, version1, version2 int) (*domain.EventVersionDiff, error) {
	args := m.Called(ctx, eventID, version1, version2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventVersionDiff), args.Error(1)
}

func (m *mockHistoryService) RollbackToVersion(ctx context.Context, actorID, eventID int64, versionNumber int) (int, error) {
	args := m.Called(ctx, actorID, eventID, versionNumber)
	return args.Int(0), args.Error(1)
}

func (m *mockHistoryService) ExportChangelog(ctx context.Context, eventID int64) ([]byte, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockCollaborationService struct{ mock.Mock }

func (m *mockCollaborationService) ShareEvent(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error) {
	args := m.Called(ctx, actorID, eventID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventPermission), args.Error(1)
}

func (m *mockCollaborationService) ListPermissions(ctx context.Context, eventID int64) ([]*domain.EventPermission, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EventPermission), args.Error(1)
}

func (m *mockCollaborationService) UpdatePermission(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error) {
	args := m.Called(ctx, actorID, eventID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventPermission), args.Error(1)
}

func (m *mockCollaborationService) RemovePermission(ctx context.Context, actorID, eventID, userID int64) error {
	return m.Called(ctx, actorID, eventID, userID).Error(0)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*service.AuthTokens, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthTokens), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, login, password string) (*service.AuthTokens, error) {
	args := m.Called(ctx, login, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthTokens), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, token, refreshToken string) error {
	return m.Called(ctx, token, refreshToken).Error(0)
}

// tokenTable authenticates fixed tokens.
type tokenTable map[string]int64

func (t tokenTable) Authenticate(_ context.Context, token string) (int64, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return 0, domain.Unauthenticated("invalid token")
}

// roleTable grants the listed users their global role.
type roleTable map[int64]string

func (t roleTable) Authorize(_ context.Context, userID int64, requiredRoles []string) error {
	role := t[userID]
	for _, r := range requiredRoles {
		if r == role {
			return nil
		}
	}
	return domain.Unauthorized("Unauthorized")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errBoom = errors.New("boom")
