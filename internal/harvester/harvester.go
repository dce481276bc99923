package harvester

import (
	"context"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
)

type Client interface {
	// Run harvests the most recent slice of posts for one tag. The returned
	// stats are valid even when the run ends on a fetch failure.
	Run(ctx context.Context, tag string) (domain.RunStats, error)

	// RunAll harvests every configured tag in order.
	RunAll(ctx context.Context) error

	// ScheduleHarvests sets up the periodic harvesting job.
	ScheduleHarvests(ctx context.Context) error
}
