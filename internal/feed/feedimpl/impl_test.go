package feedimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	session *auth.Session
	err     error
	calls   int
}

func (f *fakeAuth) Bootstrap(ctx context.Context) (*auth.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

var _ auth.Client = (*fakeAuth)(nil)

func validAuth() *fakeAuth {
	return &fakeAuth{session: &auth.Session{SessionID: "sess-1", CSRFToken: "csrf-1"}}
}

func newTestClient(t *testing.T, handler http.Handler, authClient auth.Client) (*FeedImpl, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewWithBaseURL(
		server.URL,
		"testhash",
		12,
		authClient,
		&http.Client{Timeout: 5 * time.Second},
		logger.New(logger.Opts{}),
	)
	return client, server
}

const queryPageJSON = `{
	"data": {
		"hashtag": {
			"edge_hashtag_to_media": {
				"edges": [
					{"node": {"id": "1", "shortcode": "A"}},
					{"node": {"id": "2", "shortcode": "B"}}
				],
				"page_info": {"has_next_page": true, "end_cursor": "next-cursor"}
			}
		}
	},
	"status": "ok"
}`

func TestTagPageRequestTemplate(t *testing.T) {
	var gotHeaders http.Header
	var gotQuery map[string][]string

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql/query/", func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(queryPageJSON))
	})

	client, server := newTestClient(t, mux, validAuth())

	page, err := client.TagPage(context.Background(), "sunset", "cursor-0")
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Len(t, page.Nodes, 2)
	assert.Equal(t, "next-cursor", page.EndCursor)
	assert.True(t, page.HasNext)

	assert.Equal(t, "sessionid=sess-1; csrftoken=csrf-1", gotHeaders.Get("Cookie"))
	assert.Equal(t, "csrf-1", gotHeaders.Get("X-CSRFToken"))
	assert.Equal(t, "XMLHttpRequest", gotHeaders.Get("X-Requested-With"))
	assert.Equal(t, server.URL+"/explore/tags/sunset/", gotHeaders.Get("Referer"))
	assert.NotEmpty(t, gotHeaders.Get("User-Agent"))

	assert.Equal(t, []string{"testhash"}, gotQuery["query_hash"])
	assert.Equal(t, []string{`{"tag_name":"sunset","first":12,"after":"cursor-0"}`}, gotQuery["variables"])
}

func TestTagPageVariablesStayValidJSON(t *testing.T) {
	// Tags with control or non-ASCII characters must still produce a
	// variables parameter the upstream can decode.
	var gotVariables string

	mux := http.NewServeMux()
	mux.HandleFunc("/graphql/query/", func(w http.ResponseWriter, r *http.Request) {
		gotVariables = r.URL.Query().Get("variables")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(queryPageJSON))
	})

	client, _ := newTestClient(t, mux, validAuth())

	tag := "日没\u0001tag"
	_, err := client.TagPage(context.Background(), tag, "c1")
	require.NoError(t, err)

	var decoded struct {
		TagName string `json:"tag_name"`
		First   int    `json:"first"`
		After   string `json:"after"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotVariables), &decoded))
	assert.Equal(t, tag, decoded.TagName)
	assert.Equal(t, 12, decoded.First)
	assert.Equal(t, "c1", decoded.After)
}

func TestTagLandingJSONVariant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/explore/tags/sunset/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("__a"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"graphql": {
				"hashtag": {
					"edge_hashtag_to_media": {
						"edges": [{"node": {"id": "1"}}],
						"page_info": {"has_next_page": true, "end_cursor": "c1"}
					}
				}
			}
		}`))
	})

	client, _ := newTestClient(t, mux, validAuth())

	page, err := client.TagLanding(context.Background(), "sunset")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Len(t, page.Nodes, 1)
	assert.Equal(t, "c1", page.EndCursor)
	assert.True(t, page.HasNext)
}

func TestTagLandingSharedDataDocument(t *testing.T) {
	html := `<html><head><script type="text/javascript">window._sharedData = {
		"entry_data": {
			"TagPage": [{
				"tag": {
					"media": {
						"nodes": [{"id": "1", "code": "A"}, {"id": "2", "code": "B"}],
						"page_info": {"has_next_page": true, "end_cursor": "c1"}
					}
				}
			}]
		}
	};</script></head><body></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/explore/tags/sunset/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	})

	client, _ := newTestClient(t, mux, validAuth())

	page, err := client.TagLanding(context.Background(), "sunset")
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Len(t, page.Nodes, 2)
	assert.Equal(t, "c1", page.EndCursor)
}

func TestTagPageEmptyShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql/query/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {}, "status": "ok"}`))
	})

	client, _ := newTestClient(t, mux, validAuth())

	page, err := client.TagPage(context.Background(), "sunset", "c1")
	assert.Nil(t, page)
	assert.ErrorIs(t, err, feed.ErrEmptyResponse)
}

func TestTagPageBadStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql/query/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client, _ := newTestClient(t, mux, validAuth())

	page, err := client.TagPage(context.Background(), "sunset", "c1")
	assert.Nil(t, page)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, feed.ErrEmptyResponse)
}

func TestSessionBootstrappedOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graphql/query/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(queryPageJSON))
	})

	authClient := validAuth()
	client, _ := newTestClient(t, mux, authClient)

	_, err := client.TagPage(context.Background(), "sunset", "c1")
	require.NoError(t, err)
	_, err = client.TagPage(context.Background(), "sunset", "c2")
	require.NoError(t, err)

	assert.Equal(t, 1, authClient.calls)
}

func TestBootstrapFailureSurfaces(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux(), &fakeAuth{err: auth.ErrBootstrap})

	page, err := client.TagLanding(context.Background(), "sunset")
	assert.Nil(t, page)
	assert.ErrorIs(t, err, auth.ErrBootstrap)
}
