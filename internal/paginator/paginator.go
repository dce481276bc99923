// Package paginator drives successive fetches of a tag feed, tracking the
// opaque pagination cursor, retrying transient failures and deciding
// termination. It produces a lazy, finite sequence of raw node batches.
package paginator

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"github.com/orgball2608/hashtag-harvester/pkg/retry"
)

// ErrFetchExhausted marks a page fetch whose retry budget was spent. It ends
// the run, not the process: pages already handed off remain valid.
var ErrFetchExhausted = errors.New("page fetch retries exhausted")

// State is the paginator's position in its lifecycle.
type State int

const (
	StateInit State = iota
	StateFetching
	StateHasPage
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetching:
		return "fetching"
	case StateHasPage:
		return "has_page"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Paginator owns the cursor for the duration of one harvesting run.
type Paginator struct {
	feed     feed.Client
	logger   logger.Logger
	retryCfg retry.Config

	tag        string
	state      State
	lastCursor string // Last accepted cursor, updated before the next page is evaluated
}

func New(feedClient feed.Client, log logger.Logger, retryCfg retry.Config) *Paginator {
	return &Paginator{
		feed:     feedClient,
		logger:   log.WithComponent("Paginator"),
		retryCfg: retryCfg,
		state:    StateInit,
	}
}

// State returns the paginator's current state.
func (p *Paginator) State() State {
	return p.state
}

// Start issues the first page request against the tag's landing resource and
// returns the embedded batch. An auth bootstrap failure is fatal and is never
// retried.
func (p *Paginator) Start(ctx context.Context, tag string) (*domain.RawPage, error) {
	if p.state != StateInit {
		return nil, fmt.Errorf("paginator already started for tag %q", p.tag)
	}
	p.tag = tag

	page, err := p.fetch(ctx, func(fetchCtx context.Context) (*domain.RawPage, error) {
		return p.feed.TagLanding(fetchCtx, tag)
	})
	if err != nil || page == nil {
		return nil, err
	}

	p.accept(page)
	return page, nil
}

// Next issues a page request carrying the current cursor. It returns a nil
// page once the feed is exhausted.
func (p *Paginator) Next(ctx context.Context) (*domain.RawPage, error) {
	switch p.state {
	case StateHasPage:
	case StateExhausted:
		return nil, nil
	case StateFailed:
		return nil, ErrFetchExhausted
	default:
		return nil, fmt.Errorf("paginator not started")
	}

	cursor := p.lastCursor
	page, err := p.fetch(ctx, func(fetchCtx context.Context) (*domain.RawPage, error) {
		return p.feed.TagPage(fetchCtx, p.tag, cursor)
	})
	if err != nil || page == nil {
		return nil, err
	}

	// The same cursor echoed back means the feed is not advancing; stop
	// rather than loop on it.
	if page.EndCursor == cursor {
		p.state = StateExhausted
		p.logger.Info("Cursor did not advance, ending run", "tag", p.tag, "cursor", cursor)
		return page, nil
	}

	p.accept(page)
	return page, nil
}

// accept records the page's cursor as the last accepted one and decides
// whether another page can follow.
func (p *Paginator) accept(page *domain.RawPage) {
	p.lastCursor = page.EndCursor

	switch {
	case len(page.Nodes) == 0:
		p.state = StateExhausted
	case page.EndCursor == "" || !page.HasNext:
		p.state = StateExhausted
	default:
		p.state = StateHasPage
	}
}

// fetch runs one page request under the bounded fixed-interval retry policy.
// Transient failures (network errors, bad status, non-parseable bodies) are
// retried; spending the budget on them fails the run. Spending it on the
// upstream's empty/error shape is treated as exhaustion instead.
func (p *Paginator) fetch(ctx context.Context, op func(context.Context) (*domain.RawPage, error)) (*domain.RawPage, error) {
	p.state = StateFetching

	var page *domain.RawPage
	err := retry.Do(ctx, p.logger, "fetch tag page", func() error {
		result, fetchErr := op(ctx)
		if fetchErr != nil {
			if errors.Is(fetchErr, auth.ErrBootstrap) {
				return backoff.Permanent(fetchErr)
			}
			return fetchErr
		}
		page = result
		return nil
	}, p.retryCfg)

	if err != nil {
		if errors.Is(err, auth.ErrBootstrap) {
			p.state = StateFailed
			return nil, err
		}
		if errors.Is(err, feed.ErrEmptyResponse) {
			p.state = StateExhausted
			p.logger.Warn("Feed kept returning an empty payload, treating as end of feed", "tag", p.tag)
			return nil, nil
		}
		p.state = StateFailed
		return nil, fmt.Errorf("%w: %v", ErrFetchExhausted, err)
	}

	return page, nil
}
