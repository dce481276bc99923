package feedimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/pkg/config"
	"github.com/orgball2608/hashtag-harvester/pkg/errors"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"go.uber.org/fx"
)

const (
	defaultBaseURL = "https://www.instagram.com"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	accept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
)

type Opts struct {
	fx.In

	Auth   auth.Client
	Config *config.Config
	Logger logger.Logger
}

type FeedImpl struct {
	httpClient *http.Client
	baseURL    string
	queryHash  string
	pageSize   int
	auth       auth.Client
	logger     logger.Logger

	mu      sync.Mutex
	session *auth.Session
}

func New(opts Opts) *FeedImpl {
	return &FeedImpl{
		httpClient: &http.Client{Timeout: opts.Config.Harvest.RequestTimeout},
		baseURL:    defaultBaseURL,
		queryHash:  opts.Config.Instagram.QueryHash,
		pageSize:   opts.Config.Harvest.PageSize,
		auth:       opts.Auth,
		logger:     opts.Logger.WithComponent("FeedClient"),
	}
}

// NewWithBaseURL builds a feed client against a non-default host.
func NewWithBaseURL(baseURL, queryHash string, pageSize int, authClient auth.Client, httpClient *http.Client, log logger.Logger) *FeedImpl {
	return &FeedImpl{
		httpClient: httpClient,
		baseURL:    baseURL,
		queryHash:  queryHash,
		pageSize:   pageSize,
		auth:       authClient,
		logger:     log.WithComponent("FeedClient"),
	}
}

var _ feed.Client = (*FeedImpl)(nil)

// ensureSession runs the one-shot auth handshake on first use.
func (f *FeedImpl) ensureSession(ctx context.Context) (*auth.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.session.Valid() {
		return f.session, nil
	}

	session, err := f.auth.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Valid() {
		return nil, errors.Wrap(auth.ErrBootstrap, "bootstrap returned incomplete session")
	}

	f.session = session
	return session, nil
}

func (f *FeedImpl) landingURL(tag string) string {
	return fmt.Sprintf("%s/explore/tags/%s/", f.baseURL, url.PathEscape(tag))
}

type queryVariables struct {
	TagName string `json:"tag_name"`
	First   int    `json:"first"`
	After   string `json:"after"`
}

func (f *FeedImpl) queryURL(tag, cursor string) string {
	variables, _ := json.Marshal(queryVariables{
		TagName: tag,
		First:   f.pageSize,
		After:   cursor,
	})

	params := url.Values{}
	params.Set("query_hash", f.queryHash)
	params.Set("variables", string(variables))

	return fmt.Sprintf("%s/graphql/query/?%s", f.baseURL, params.Encode())
}

// setRequestHeaders applies the fixed request template every page request
// carries: browser-like identity headers, the tag landing page as referrer,
// and the session credentials.
func (f *FeedImpl) setRequestHeaders(req *http.Request, tag string, session *auth.Session) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", f.landingURL(tag))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Cookie", session.CookieHeader())
	req.Header.Set("X-CSRFToken", session.CSRFToken)
}

// TagLanding fetches the tag landing resource and extracts the embedded first
// page, either from the JSON-only variant endpoint or from the
// window._sharedData script payload of the HTML document.
func (f *FeedImpl) TagLanding(ctx context.Context, tag string) (*domain.RawPage, error) {
	session, err := f.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.landingURL(tag)+"?__a=1", nil)
	if err != nil {
		return nil, errors.Wrap(err, "building landing request")
	}
	f.setRequestHeaders(req, tag, session)

	body, err := f.do(req)
	if err != nil {
		return nil, err
	}

	page, err := parseLanding(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched tag landing", "tag", tag, "nodes", len(page.Nodes))
	return page, nil
}

// TagPage fetches the page after the given cursor from the query resource.
func (f *FeedImpl) TagPage(ctx context.Context, tag string, cursor string) (*domain.RawPage, error) {
	session, err := f.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.queryURL(tag, cursor), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building page request")
	}
	f.setRequestHeaders(req, tag, session)

	body, err := f.do(req)
	if err != nil {
		return nil, err
	}

	page, err := parseQueryPage(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched tag page", "tag", tag, "nodes", len(page.Nodes), "cursor", page.EndCursor)
	return page, nil
}

func (f *FeedImpl) do(req *http.Request) ([]byte, error) {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, req.URL.Path))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}

	return body, nil
}
