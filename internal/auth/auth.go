package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrBootstrap signals that session credentials could not be obtained. It is
// fatal for the run: no fetch is attempted without them.
var ErrBootstrap = errors.New("auth bootstrap failed")

// Session holds the opaque header values the feed client sends with every
// page request.
type Session struct {
	SessionID string
	CSRFToken string
}

// Valid reports whether the session carries the credentials page requests need.
func (s *Session) Valid() bool {
	return s != nil && s.SessionID != "" && s.CSRFToken != ""
}

// CookieHeader renders the session as a Cookie header value.
func (s *Session) CookieHeader() string {
	return fmt.Sprintf("sessionid=%s; csrftoken=%s", s.SessionID, s.CSRFToken)
}

// Client performs the one-shot handshake that obtains a session cookie and
// anti-forgery token. It is a single request/response exchange, no state
// machine lives here.
type Client interface {
	Bootstrap(ctx context.Context) (*Session, error)
}
