package harvesterimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/hashtag-harvester/internal/auth"
)

// RunAll harvests every configured tag in order. A failed run for one tag
// does not stop the others; a failed auth bootstrap does, since no later run
// can fetch either.
func (h *HarvesterImpl) RunAll(ctx context.Context) error {
	for _, tag := range h.Config.Harvest.Tags {
		if _, err := h.Run(ctx, tag); err != nil {
			if errors.Is(err, auth.ErrBootstrap) {
				return err
			}
			h.Logger.Error("Harvest run ended on fetch failure", "tag", tag, "error", err)
		}
	}
	return nil
}

// ScheduleHarvests sets up the periodic job that harvests all configured tags.
func (h *HarvesterImpl) ScheduleHarvests(ctx context.Context) error {
	h.Logger.Info("Setting up harvest scheduler", "interval", h.Config.Harvest.Interval.String())

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create harvest scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(h.Config.Harvest.Interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				h.Logger.Info("Context cancelled, skipping scheduled harvest")
				return
			}

			// A run that outlasts the interval would overlap the next tick.
			runCtx, cancel := context.WithTimeout(ctx, h.Config.Harvest.Interval)
			defer cancel()

			if err := h.RunAll(runCtx); err != nil {
				h.Logger.Error("Scheduled harvest failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule harvests: %w", err)
	}

	if h.Config.Harvest.Retention > 0 {
		_, err = scheduler.NewJob(
			gocron.DurationJob(24*time.Hour),
			gocron.NewTask(func() {
				if ctx.Err() != nil {
					h.Logger.Info("Context cancelled, skipping scheduled cleanup")
					return
				}

				cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()

				h.CleanupOldPosts(cleanupCtx)
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule database cleanup: %w", err)
		}
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		h.Logger.Info("Stopping harvest scheduler")
		if err := scheduler.Shutdown(); err != nil {
			h.Logger.Error("Failed to shut down harvest scheduler", "error", err)
		}
	}()

	return nil
}

// CleanupOldPosts deletes posts stored longer ago than the configured
// retention window.
func (h *HarvesterImpl) CleanupOldPosts(ctx context.Context) {
	h.Logger.Info("Starting database cleanup", "retention", h.Config.Harvest.Retention.String())

	rowsDeleted, err := h.PostRepo.CleanupOldRecords(ctx, h.Config.Harvest.Retention)
	if err != nil {
		h.Logger.Error("Failed to clean up old posts", "error", err)
		return
	}

	h.Logger.Info("Database cleanup completed", "rows_deleted", rowsDeleted)
}
