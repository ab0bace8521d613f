package service

import (
	"context"
	"strings"

	"collab-events/internal/database"
	"collab-events/internal/domain"

	"go.uber.org/zap"
)

// EventAccess is the per-event capability a mutation needs.
type EventAccess string

const (
	// AccessWrite covers update, delete and rollback.
	AccessWrite EventAccess = "write"
	// AccessManage covers sharing and grant changes.
	AccessManage EventAccess = "manage"
)

// PermissionEvaluator answers two independent questions: does the user hold
// one of a set of global roles, and may the user touch a given event.
type PermissionEvaluator struct {
	db     database.Runner
	repos  Repositories
	logger *zap.Logger
}

func NewPermissionEvaluator(db database.Runner, repos Repositories, logger *zap.Logger) *PermissionEvaluator {
	return &PermissionEvaluator{db: db, repos: repos, logger: logger}
}

// Authorize allows the call when the user's global role is one of
// requiredRoles (case-insensitive). Unknown users and users without a role
// are denied.
func (p *PermissionEvaluator) Authorize(ctx context.Context, userID int64, requiredRoles []string) error {
	role, err := p.repos.Users.GetRoleName(ctx, p.db, userID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.Unauthorized("Unauthorized")
		}
		return err
	}
	if role != "" {
		for _, r := range requiredRoles {
			if strings.EqualFold(r, role) {
				return nil
			}
		}
	}
	p.logger.Debug("Role check denied",
		zap.Int64("user_id", userID),
		zap.String("role", role),
		zap.Strings("required", requiredRoles),
	)
	return domain.Unauthorized("Unauthorized")
}

// AuthorizeEvent checks the event-level grant for access. The event owner
// always passes; otherwise the user's event_permissions row decides. q is
// the caller's transaction so the check sees the locked row.
func (p *PermissionEvaluator) AuthorizeEvent(ctx context.Context, q database.Runner, event *domain.Event, userID int64, access EventAccess) error {
	if event.OwnerUserID == userID {
		return nil
	}
	perm, err := p.repos.Permissions.GetPermission(ctx, q, event.ID, userID)
	if err != nil {
		return err
	}
	if perm != nil {
		switch access {
		case AccessWrite:
			if perm.Role == domain.PermissionOwner || perm.Role == domain.PermissionEditor {
				return nil
			}
		case AccessManage:
			if perm.Role == domain.PermissionOwner {
				return nil
			}
		}
	}
	return domain.Unauthorized("user %d may not %s event %d", userID, access, event.ID)
}
