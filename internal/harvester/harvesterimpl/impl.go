package harvesterimpl

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/internal/harvester"
	"github.com/orgball2608/hashtag-harvester/internal/normalizer"
	"github.com/orgball2608/hashtag-harvester/internal/notifier"
	"github.com/orgball2608/hashtag-harvester/internal/paginator"
	"github.com/orgball2608/hashtag-harvester/internal/repositories/post"
	"github.com/orgball2608/hashtag-harvester/pkg/config"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"github.com/orgball2608/hashtag-harvester/pkg/retry"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Feed     feed.Client
	PostRepo post.Repository
	Notifier notifier.Client
	Logger   logger.Logger
	Config   *config.Config
}

type HarvesterImpl struct {
	Feed       feed.Client
	PostRepo   post.Repository
	Notifier   notifier.Client
	Logger     logger.Logger
	Config     *config.Config
	Normalizer *normalizer.Normalizer
}

func New(opts Opts) *HarvesterImpl {
	return &HarvesterImpl{
		Feed:       opts.Feed,
		PostRepo:   opts.PostRepo,
		Notifier:   opts.Notifier,
		Logger:     opts.Logger.WithComponent("Harvester"),
		Config:     opts.Config,
		Normalizer: normalizer.New(opts.Config.Harvest.ExcludedHashtags),
	}
}

var _ harvester.Client = (*HarvesterImpl)(nil)

// Run drives the paginator to a terminal state, normalizing and sinking each
// page in order and tallying outcomes per page and cumulatively.
func (h *HarvesterImpl) Run(ctx context.Context, tag string) (domain.RunStats, error) {
	stats := domain.RunStats{
		Tag:       tag,
		Outcome:   domain.RunExhausted,
		StartedAt: time.Now(),
	}

	h.Logger.Info("Starting harvest run", "tag", tag)

	pager := paginator.New(h.Feed, h.Logger, retry.Config{
		MaxRetries: uint64(h.Config.Harvest.RequestRetries),
		Interval:   h.Config.Harvest.ErrorTimeout,
	})

	page, err := pager.Start(ctx, tag)
	if err != nil {
		stats.Outcome = domain.RunFailed
		h.finish(&stats)
		if errors.Is(err, auth.ErrBootstrap) {
			// Fatal before any fetch: nothing was harvested, nothing to report.
			return stats, err
		}
		h.report(ctx, stats)
		return stats, err
	}

	for page != nil {
		h.processPage(ctx, page, &stats)
		stats.Pages++

		page, err = pager.Next(ctx)
		if err != nil {
			stats.Outcome = domain.RunFailed
			break
		}
	}

	h.finish(&stats)
	h.report(ctx, stats)
	return stats, err
}

// processPage normalizes and sinks one batch, tallying per-page outcomes.
// Node-level problems never abort the rest of the batch.
func (h *HarvesterImpl) processPage(ctx context.Context, page *domain.RawPage, stats *domain.RunStats) {
	var newPosts, duplicatePosts int

	for _, node := range page.Nodes {
		canonical, err := h.Normalizer.Normalize(node)
		if err != nil {
			stats.Skipped++
			h.Logger.Warn("Problems parsing post", "tag", stats.Tag, "error", err)
			continue
		}
		if canonical == nil {
			// Contains an excluded hashtag, dropped silently.
			stats.Excluded++
			continue
		}

		if err := h.PostRepo.Create(ctx, *canonical); err != nil {
			if errors.Is(err, post.ErrAlreadyExists) {
				duplicatePosts++
				continue
			}
			h.Logger.Error("Failed to save post", "postID", canonical.PostID, "error", err)
			continue
		}
		newPosts++
	}

	stats.New += newPosts
	stats.Duplicate += duplicatePosts

	h.Logger.Info("Page processed",
		"tag", stats.Tag,
		"new_posts", newPosts,
		"duplicate_posts", duplicatePosts,
	)
}

func (h *HarvesterImpl) finish(stats *domain.RunStats) {
	stats.FinishedAt = time.Now()
	stats.Elapsed = stats.FinishedAt.Sub(stats.StartedAt)

	h.Logger.Info("Harvest run finished",
		"tag", stats.Tag,
		"outcome", string(stats.Outcome),
		"pages", stats.Pages,
		"new_posts", stats.New,
		"duplicate_posts", stats.Duplicate,
		"skipped", stats.Skipped,
		"excluded", stats.Excluded,
		"elapsed", stats.Elapsed.Round(time.Millisecond).String(),
	)
}

// report assembles and delivers the end-of-run summary. Reporting problems
// never fail a run.
func (h *HarvesterImpl) report(ctx context.Context, stats domain.RunStats) {
	report := notifier.RunReport{Stats: stats}

	normalized := "#" + stats.Tag
	total, err := h.PostRepo.CountByTag(ctx, normalized)
	if err != nil {
		h.Logger.Warn("Failed to count stored posts", "tag", stats.Tag, "error", err)
	} else {
		report.TotalStored = total
	}

	latest, err := h.PostRepo.GetLatestByTag(ctx, normalized, 1)
	if err != nil {
		h.Logger.Warn("Failed to load latest stored post", "tag", stats.Tag, "error", err)
	} else if len(latest) > 0 {
		report.LatestCode = latest[0].Code
	}

	if err := h.Notifier.SendRunReport(ctx, report); err != nil {
		h.Logger.Warn("Failed to deliver run report", "tag", stats.Tag, "error", err)
	}
}
