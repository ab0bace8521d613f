package service

import (
	"context"

	"collab-events/internal/database"
	"collab-events/internal/domain"

	"go.uber.org/zap"
)

// CollaborationService manages per-event grants.
type CollaborationService struct {
	db        TxRunner
	repos     Repositories
	evaluator *PermissionEvaluator
	logger    *zap.Logger
}

func NewCollaborationService(db TxRunner, repos Repositories, evaluator *PermissionEvaluator, logger *zap.Logger) *CollaborationService {
	return &CollaborationService{db: db, repos: repos, evaluator: evaluator, logger: logger}
}

// ShareEvent grants role on the event to userID. Sharing again with the same
// user replaces the role.
func (s *CollaborationService) ShareEvent(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error) {
	normalized, ok := domain.NormalizePermissionRole(role)
	if !ok {
		return nil, domain.Validation("role must be one of owner, editor, viewer")
	}

	var perm *domain.EventPermission
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.authorizeManage(ctx, tx, actorID, eventID); err != nil {
			return err
		}
		p, err := s.repos.Permissions.UpsertPermission(ctx, tx, eventID, userID, normalized)
		if err != nil {
			return err
		}
		perm = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Event shared",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.String("role", normalized),
		zap.Int64("actor_id", actorID),
	)
	return perm, nil
}

func (s *CollaborationService) ListPermissions(ctx context.Context, eventID int64) ([]*domain.EventPermission, error) {
	return s.repos.Permissions.ListPermissions(ctx, s.db, eventID)
}

// UpdatePermission changes the role of an existing grant; a missing grant is
// NotFound.
func (s *CollaborationService) UpdatePermission(ctx context.Context, actorID, eventID, userID int64, role string) (*domain.EventPermission, error) {
	normalized, ok := domain.NormalizePermissionRole(role)
	if !ok {
		return nil, domain.Validation("role must be one of owner, editor, viewer")
	}

	var perm *domain.EventPermission
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.authorizeManage(ctx, tx, actorID, eventID); err != nil {
			return err
		}
		p, err := s.repos.Permissions.UpdatePermission(ctx, tx, eventID, userID, normalized)
		if err != nil {
			return err
		}
		perm = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return perm, nil
}

// RemovePermission deletes the grant. Nothing changes when the grant does
// not exist, and the caller is told so with NotFound.
func (s *CollaborationService) RemovePermission(ctx context.Context, actorID, eventID, userID int64) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := s.authorizeManage(ctx, tx, actorID, eventID); err != nil {
			return err
		}
		removed, err := s.repos.Permissions.DeletePermission(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.NotFound("user %d has no permission on event %d", userID, eventID)
		}
		return nil
	})
}

func (s *CollaborationService) authorizeManage(ctx context.Context, tx *database.Tx, actorID, eventID int64) error {
	event, err := s.repos.Events.LockEvent(ctx, tx, eventID)
	if err != nil {
		return err
	}
	return s.evaluator.AuthorizeEvent(ctx, tx, event, actorID, AccessManage)
}
