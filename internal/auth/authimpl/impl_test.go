package authimpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBootstrap(t *testing.T, handler http.Handler, sessionID string) *AuthImpl {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewWithBaseURL(
		server.URL,
		sessionID,
		&http.Client{Timeout: 5 * time.Second},
		logger.New(logger.Opts{}),
	)
}

func TestBootstrapReadsCSRFTokenCookie(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "mid", Value: "whatever"})
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "token-123"})
		w.WriteHeader(http.StatusOK)
	})

	a := newTestBootstrap(t, handler, "sess-1")

	session, err := a.Bootstrap(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, "token-123", session.CSRFToken)
	assert.True(t, session.Valid())
	assert.Equal(t, "sessionid=sess-1; csrftoken=token-123", session.CookieHeader())
}

func TestBootstrapFailsWithoutSessionID(t *testing.T) {
	a := newTestBootstrap(t, http.NewServeMux(), "")

	session, err := a.Bootstrap(context.Background())
	assert.Nil(t, session)
	assert.ErrorIs(t, err, auth.ErrBootstrap)
}

func TestBootstrapFailsWithoutCSRFCookie(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	a := newTestBootstrap(t, handler, "sess-1")

	session, err := a.Bootstrap(context.Background())
	assert.Nil(t, session)
	assert.ErrorIs(t, err, auth.ErrBootstrap)
}
