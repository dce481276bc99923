package feed

import (
	"context"
	"errors"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
)

// ErrEmptyResponse marks a well-formed reply that carries no hashtag payload
// (the upstream's "Oops, an error occurred" shape). It is transient and must
// not be confused with true end-of-feed.
var ErrEmptyResponse = errors.New("feed response carried no hashtag payload")

type Client interface {
	// TagLanding fetches the tag's landing resource: the first page of nodes
	// plus the initial pagination cursor.
	TagLanding(ctx context.Context, tag string) (*domain.RawPage, error)

	// TagPage fetches the page following the given cursor.
	TagPage(ctx context.Context, tag string, cursor string) (*domain.RawPage, error)
}
