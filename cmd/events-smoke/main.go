// events-smoke walks a running server through register, create, update,
// share, rollback, diff and export, failing on the first unexpected answer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"collab-events/pkg/client"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "collab-events base URL")
	out := flag.String("export", "", "write the changelog workbook to this path")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := run(context.Background(), *baseURL, *out, logger); err != nil {
		logger.Error("Smoke test failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Smoke test passed")
}

func run(ctx context.Context, baseURL, exportPath string, logger *zap.Logger) error {
	suffix := uuid.NewString()[:8]
	owner := client.New(baseURL, logger)
	if _, err := owner.Register(ctx, "owner-"+suffix, "owner-"+suffix+"@example.com", "pw-"+suffix, "Owner"); err != nil {
		return fmt.Errorf("register owner: %w", err)
	}
	guest := client.New(baseURL, logger)
	guestTokens, err := guest.Register(ctx, "guest-"+suffix, "guest-"+suffix+"@example.com", "pw-"+suffix, "Editor")
	if err != nil {
		return fmt.Errorf("register guest: %w", err)
	}

	start := time.Now().UTC().Truncate(time.Minute).Add(24 * time.Hour)
	end := start.Add(time.Hour)
	eventID, err := owner.CreateEvent(ctx, client.EventInput{Title: "Smoke " + suffix, StartTime: &start, EndTime: &end})
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	logger.Info("Event created", zap.Int64("event_id", eventID))

	// guest has no grant yet
	if _, err := guest.UpdateEvent(ctx, eventID, client.EventInput{Title: "hijack", StartTime: &start}); client.StatusOf(err) != 403 {
		return fmt.Errorf("update without grant: want 403, got %v", err)
	}
	if _, err := owner.Share(ctx, eventID, guestTokens.UserID, "editor"); err != nil {
		return fmt.Errorf("share: %w", err)
	}
	v, err := guest.UpdateEvent(ctx, eventID, client.EventInput{
		Title:         "Smoke " + suffix + " (moved)",
		StartTime:     &end,
		ChangeSummary: "moved by guest",
	})
	if err != nil {
		return fmt.Errorf("update as editor: %w", err)
	}
	if v != 2 {
		return fmt.Errorf("update: want version 2, got %d", v)
	}

	v, err = owner.Rollback(ctx, eventID, 1)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	if v != 3 {
		return fmt.Errorf("rollback: want version 3, got %d", v)
	}

	versions, err := owner.ListVersions(ctx, eventID)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	if len(versions) != 3 || versions[2].Title != versions[0].Title {
		return fmt.Errorf("history: unexpected versions %+v", versions)
	}

	diff, err := owner.Diff(ctx, eventID, 1, 2)
	if err != nil {
		return fmt.Errorf("diff 1->2: %w", err)
	}
	logger.Info("Diff", zap.String("summary", diff.DiffSummary))

	data, err := owner.ExportChangelog(ctx, eventID)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if exportPath != "" {
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			return err
		}
	}

	if err := owner.RemovePermission(ctx, eventID, guestTokens.UserID); err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	if err := owner.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return owner.Logout(ctx)
}
