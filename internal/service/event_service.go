package service

import (
	"context"
	"fmt"
	"strings"

	"collab-events/internal/database"
	"collab-events/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// EventService is the versioned-write entry point for events.
type EventService struct {
	writer *versionedWriter
	logger *zap.Logger
}

func NewEventService(db TxRunner, repos Repositories, evaluator *PermissionEvaluator, maxAttempts int, logger *zap.Logger) *EventService {
	return &EventService{
		writer: newVersionedWriter(db, repos, evaluator, maxAttempts, logger),
		logger: logger,
	}
}

// CreateEvent validates fields and writes the event with version 1,
// a create changelog entry and the initial diff in one transaction.
func (s *EventService) CreateEvent(ctx context.Context, ownerID int64, fields domain.EventFields) (int64, error) {
	if err := fields.Validate(true); err != nil {
		return 0, err
	}
	var eventID int64
	err := s.writer.run(ctx, string(domain.ActionCreate), func(tx *database.Tx) error {
		id, err := s.writer.createInTx(ctx, tx, ownerID, fields)
		if err != nil {
			return err
		}
		eventID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Event created", zap.Int64("event_id", eventID), zap.Int64("owner_user_id", ownerID))
	return eventID, nil
}

// UpdateEvent overwrites every mutable column; absent optional fields are
// cleared. Returns the new version number.
func (s *EventService) UpdateEvent(ctx context.Context, actorID, eventID int64, fields domain.EventFields, changeSummary string) (int, error) {
	if err := fields.Validate(false); err != nil {
		return 0, err
	}
	changeSummary = strings.TrimSpace(changeSummary)
	if changeSummary == "" {
		changeSummary = defaultUpdateSummary
	}

	var version int
	err := s.writer.run(ctx, string(domain.ActionUpdate), func(tx *database.Tx) error {
		v, err := s.writer.reviseInTx(ctx, tx, actorID, eventID, revision{
			action:        domain.ActionUpdate,
			changeSummary: changeSummary,
			describe: func(v int) string {
				return fmt.Sprintf("Event updated to version %d", v)
			},
			resolve: func(context.Context, *database.Tx) (domain.EventFields, error) {
				return fields, nil
			},
		})
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("Event updated",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", actorID),
		zap.Int("version", version),
	)
	return version, nil
}

// CreateEventsBatch creates every item through the same versioned path as
// CreateEvent. All items are validated first and the batch commits or
// aborts as a whole. Ids are returned in input order.
func (s *EventService) CreateEventsBatch(ctx context.Context, ownerID int64, items []domain.EventFields) ([]int64, error) {
	if len(items) == 0 {
		return nil, domain.Validation("events must be a non-empty list")
	}
	for i := range items {
		if err := items[i].Validate(true); err != nil {
			return nil, domain.Validation("event %d: %s", i, err.Error())
		}
	}

	var ids []int64
	err := s.writer.run(ctx, "batch_create", func(tx *database.Tx) error {
		ids = make([]int64, 0, len(items))
		for i, fields := range items {
			id, err := s.writer.createInTx(ctx, tx, ownerID, fields)
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Event batch created", zap.Int64("owner_user_id", ownerID), zap.Int("count", len(ids)))
	return ids, nil
}

// DeleteEvent records a delete changelog entry and removes the row. Grants
// go with the row; versions, changelog and diffs are kept.
func (s *EventService) DeleteEvent(ctx context.Context, actorID, eventID int64) error {
	err := s.writer.run(ctx, string(domain.ActionDelete), func(tx *database.Tx) error {
		current, err := s.writer.repos.Events.LockEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if err := s.writer.evaluator.AuthorizeEvent(ctx, tx, current, actorID, AccessWrite); err != nil {
			return err
		}
		if _, err := s.writer.repos.Changelog.AppendEntry(ctx, tx, &domain.EventChangelogEntry{
			EventID:     eventID,
			Action:      domain.ActionDelete,
			UserID:      actorID,
			Description: fmt.Sprintf("Event %q deleted", current.Title),
		}); err != nil {
			return err
		}
		return s.writer.repos.Events.DeleteEvent(ctx, tx, eventID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Event deleted", zap.Int64("event_id", eventID), zap.Int64("user_id", actorID))
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	return s.writer.repos.Events.GetEvent(ctx, s.writer.db, eventID)
}

// ListEvents pages by id. limit falls back to DefaultListLimit and is capped
// at MaxListLimit; a negative offset reads from the start.
func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.writer.repos.Events.ListEvents(ctx, s.writer.db, limit, offset)
}
