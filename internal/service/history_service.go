package service

import (
	"context"
	"fmt"

	"collab-events/internal/database"
	"collab-events/internal/domain"

	"go.uber.org/zap"
)

// HistoryService reads version snapshots, the changelog and stored diffs,
// and replays snapshots through the versioned write path.
type HistoryService struct {
	writer *versionedWriter
	logger *zap.Logger
}

func NewHistoryService(db TxRunner, repos Repositories, evaluator *PermissionEvaluator, maxAttempts int, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		writer: newVersionedWriter(db, repos, evaluator, maxAttempts, logger),
		logger: logger,
	}
}

func (s *HistoryService) GetVersion(ctx context.Context, eventID int64, versionNumber int) (*domain.EventVersion, error) {
	if versionNumber < 1 {
		return nil, domain.Validation("version number must be positive")
	}
	return s.writer.repos.Versions.GetVersion(ctx, s.writer.db, eventID, versionNumber)
}

// ListVersions returns every snapshot of the event, oldest first. History of
// a deleted event stays readable.
func (s *HistoryService) ListVersions(ctx context.Context, eventID int64) ([]*domain.EventVersion, error) {
	return s.writer.repos.Versions.ListVersions(ctx, s.writer.db, eventID)
}

// GetChangelog returns entries newest first.
func (s *HistoryService) GetChangelog(ctx context.Context, eventID int64) ([]*domain.EventChangelogEntry, error) {
	return s.writer.repos.Changelog.ListEntries(ctx, s.writer.db, eventID)
}

// GetDiff looks up the stored diff for exactly (version1, version2). The
// reversed pair is not derived.
func (s *HistoryService) GetDiff(ctx context.Context, eventID int64, version1, version2 int) (*domain.EventVersionDiff, error) {
	return s.writer.repos.Versions.GetDiff(ctx, s.writer.db, eventID, version1, version2)
}

// RollbackToVersion writes snapshot versionNumber back onto the event as a
// new version max+1. Returns the new version number.
func (s *HistoryService) RollbackToVersion(ctx context.Context, actorID, eventID int64, versionNumber int) (int, error) {
	if versionNumber < 1 {
		return 0, domain.Validation("version number must be positive")
	}

	var version int
	err := s.writer.run(ctx, string(domain.ActionRollback), func(tx *database.Tx) error {
		v, err := s.writer.reviseInTx(ctx, tx, actorID, eventID, revision{
			action:        domain.ActionRollback,
			changeSummary: fmt.Sprintf("Rollback to version %d", versionNumber),
			describe: func(v int) string {
				return fmt.Sprintf("Rolled back to version %d as version %d", versionNumber, v)
			},
			resolve: func(ctx context.Context, tx *database.Tx) (domain.EventFields, error) {
				snapshot, err := s.writer.repos.Versions.GetVersion(ctx, tx, eventID, versionNumber)
				if err != nil {
					return domain.EventFields{}, err
				}
				return snapshot.EventFields, nil
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
	s.logger.Info("Event rolled back",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", actorID),
		zap.Int("from_version", versionNumber),
		zap.Int("version", version),
	)
	return version, nil
}

// ExportChangelog renders the event's changelog as an xlsx workbook.
func (s *HistoryService) ExportChangelog(ctx context.Context, eventID int64) ([]byte, error) {
	entries, err := s.GetChangelog(ctx, eventID)
	if err != nil {
		return nil, err
	}
	data, err := generateChangelogWorkbook(eventID, entries)
	if err != nil {
		return nil, domain.Storage("failed to render changelog export", err)
	}
	return data, nil
}
