package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"collab-events/internal/database"
	"collab-events/internal/domain"
	"collab-events/internal/metrics"

	"go.uber.org/zap"
)

const (
	initialVersionSummary = "Initial event creation"
	defaultUpdateSummary  = "Event updated"

	// DefaultVersionMaxAttempts bounds how often a versioned write is tried
	// when it keeps losing the version-number race.
	DefaultVersionMaxAttempts = 3
)

// versionedWriter owns the multi-statement write protocol shared by the
// event and history services: row write, version snapshot, changelog entry
// and diff, all inside one transaction.
type versionedWriter struct {
	db          TxRunner
	repos       Repositories
	evaluator   *PermissionEvaluator
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

func newVersionedWriter(db TxRunner, repos Repositories, evaluator *PermissionEvaluator, maxAttempts int, logger *zap.Logger) *versionedWriter {
	if maxAttempts < 2 {
		maxAttempts = 2
	}
	return &versionedWriter{
		db:          db,
		repos:       repos,
		evaluator:   evaluator,
		maxAttempts: maxAttempts,
		backoff:     jitteredBackoff,
		logger:      logger,
	}
}

func jitteredBackoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 10 * time.Millisecond
	return base + time.Duration(rand.Int63n(int64(10*time.Millisecond)))
}

// run executes fn in a fresh transaction, retrying the whole unit when it
// fails with a conflict. Each retry recomputes the next version number.
func (w *versionedWriter) run(ctx context.Context, action string, fn func(tx *database.Tx) error) error {
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err = w.db.InTx(ctx, fn)
		if !domain.IsKind(err, domain.KindConflict) {
			break
		}
		metrics.RecordConflict(action)
		if attempt == w.maxAttempts {
			w.logger.Warn("Versioned write gave up after conflicts",
				zap.String("action", action),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			break
		}
		w.logger.Info("Versioned write conflicted, retrying",
			zap.String("action", action),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			metrics.RecordMutation(action, ctx.Err())
			return domain.Storage("versioned write cancelled", ctx.Err())
		case <-time.After(w.backoff(attempt)):
		}
	}
	metrics.RecordMutation(action, err)
	if domain.IsKind(err, domain.KindStorage) {
		w.logger.Error("Versioned write failed", zap.String("action", action), zap.Error(err))
	}
	return err
}

// createInTx inserts a new event with version 1 and its audit records.
func (w *versionedWriter) createInTx(ctx context.Context, tx *database.Tx, ownerID int64, fields domain.EventFields) (int64, error) {
	eventID, err := w.repos.Events.CreateEvent(ctx, tx, ownerID, fields)
	if err != nil {
		return 0, err
	}
	if _, err := w.repos.Versions.CreateVersion(ctx, tx, &domain.EventVersion{
		EventID:       eventID,
		VersionNumber: 1,
		EventFields:   fields,
		UpdatedBy:     ownerID,
		ChangeSummary: initialVersionSummary,
	}); err != nil {
		return 0, err
	}
	if _, err := w.repos.Changelog.AppendEntry(ctx, tx, &domain.EventChangelogEntry{
		EventID:     eventID,
		Action:      domain.ActionCreate,
		UserID:      ownerID,
		Description: fmt.Sprintf("Event %q created", fields.Title),
	}); err != nil {
		return 0, err
	}
	if _, err := w.repos.Versions.CreateDiff(ctx, tx, &domain.EventVersionDiff{
		EventID:     eventID,
		Version1:    0,
		Version2:    1,
		DiffSummary: initialDiffSummary,
	}); err != nil {
		return 0, err
	}
	return eventID, nil
}

// revision describes one versioned overwrite of an existing event.
type revision struct {
	action        domain.ChangelogAction
	changeSummary string

	// describe renders the changelog text for the new version number.
	describe func(version int) string

	// resolve returns the fields to write once the row is locked and the
	// actor authorized. Rollback reads its snapshot here.
	resolve func(ctx context.Context, tx *database.Tx) (domain.EventFields, error)
}

// reviseInTx locks the event, checks write access, overwrites the row and
// records version max+1. Returns the new version number.
func (w *versionedWriter) reviseInTx(ctx context.Context, tx *database.Tx, actorID, eventID int64, rev revision) (int, error) {
	current, err := w.repos.Events.LockEvent(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if err := w.evaluator.AuthorizeEvent(ctx, tx, current, actorID, AccessWrite); err != nil {
		return 0, err
	}
	fields, err := rev.resolve(ctx, tx)
	if err != nil {
		return 0, err
	}

	next, err := w.repos.Versions.NextVersionNumber(ctx, tx, eventID)
	if err != nil {
		return 0, err
	}
	if err := w.repos.Events.UpdateEvent(ctx, tx, eventID, fields); err != nil {
		return 0, err
	}
	if _, err := w.repos.Versions.CreateVersion(ctx, tx, &domain.EventVersion{
		EventID:       eventID,
		VersionNumber: next,
		EventFields:   fields,
		UpdatedBy:     actorID,
		ChangeSummary: rev.changeSummary,
	}); err != nil {
		return 0, err
	}
	if _, err := w.repos.Changelog.AppendEntry(ctx, tx, &domain.EventChangelogEntry{
		EventID:     eventID,
		Action:      rev.action,
		UserID:      actorID,
		Description: rev.describe(next),
	}); err != nil {
		return 0, err
	}

	summary, err := summarizeDiff(current.EventFields, fields)
	if err != nil {
		return 0, domain.Storage("failed to compute diff", err)
	}
	if _, err := w.repos.Versions.CreateDiff(ctx, tx, &domain.EventVersionDiff{
		EventID:     eventID,
		Version1:    next - 1,
		Version2:    next,
		DiffSummary: summary,
	}); err != nil {
		return 0, err
	}
	return next, nil
}
