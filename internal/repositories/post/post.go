package post

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
)

var ErrAlreadyExists = errors.New("post already exists")

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go -package=mocks
type Repository interface {
	// Create inserts a post. It does not pre-check existence: a uniqueness
	// violation on the post id is reported as ErrAlreadyExists, which makes
	// the insert idempotent under repeated or overlapping runs.
	Create(ctx context.Context, post domain.Post) error

	// CountByTag returns how many stored posts carry the given hashtag.
	CountByTag(ctx context.Context, hashtag string) (int64, error)

	// GetLatestByTag returns the most recently stored posts carrying the
	// given hashtag, limited by count.
	GetLatestByTag(ctx context.Context, hashtag string, count int) ([]*domain.Post, error)

	// CleanupOldRecords deletes posts stored longer ago than olderThan and
	// returns how many were removed.
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}
