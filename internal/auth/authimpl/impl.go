package authimpl

import (
	"context"
	"net/http"

	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/pkg/config"
	"github.com/orgball2608/hashtag-harvester/pkg/errors"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"go.uber.org/fx"
)

const defaultBaseURL = "https://www.instagram.com"

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type AuthImpl struct {
	httpClient *http.Client
	baseURL    string
	sessionID  string
	logger     logger.Logger
}

func New(opts Opts) *AuthImpl {
	return &AuthImpl{
		httpClient: &http.Client{Timeout: opts.Config.Harvest.RequestTimeout},
		baseURL:    defaultBaseURL,
		sessionID:  opts.Config.Instagram.SessionID,
		logger:     opts.Logger.WithComponent("AuthBootstrap"),
	}
}

// NewWithBaseURL builds a bootstrap client against a non-default host.
func NewWithBaseURL(baseURL, sessionID string, httpClient *http.Client, log logger.Logger) *AuthImpl {
	return &AuthImpl{
		httpClient: httpClient,
		baseURL:    baseURL,
		sessionID:  sessionID,
		logger:     log.WithComponent("AuthBootstrap"),
	}
}

var _ auth.Client = (*AuthImpl)(nil)

// Bootstrap issues one request against the feed root and reads the
// anti-forgery token from the Set-Cookie response headers. The session id
// itself comes from configuration; it cannot be minted here.
func (a *AuthImpl) Bootstrap(ctx context.Context) (*auth.Session, error) {
	if a.sessionID == "" {
		return nil, errors.Wrap(auth.ErrBootstrap, "no session id configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/", nil)
	if err != nil {
		return nil, errors.Wrap(auth.ErrBootstrap, "building handshake request")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("Handshake request failed", "error", err)
		return nil, errors.Wrap(auth.ErrBootstrap, "handshake request failed")
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" && cookie.Value != "" {
			a.logger.Info("Session bootstrap complete")
			return &auth.Session{
				SessionID: a.sessionID,
				CSRFToken: cookie.Value,
			}, nil
		}
	}

	return nil, errors.Wrap(auth.ErrBootstrap, "no csrftoken cookie in handshake response")
}
