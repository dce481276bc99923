package notifier

import (
	"context"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
)

// RunReport is the end-of-run summary delivered to the configured channel.
type RunReport struct {
	Stats       domain.RunStats
	TotalStored int64  // Posts stored for the tag across all runs
	LatestCode  string // Shortcode of the most recently stored post, may be empty
}

type Client interface {
	SendRunReport(ctx context.Context, report RunReport) error
}
