package feedimpl

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/pkg/errors"
)

var sharedDataRe = regexp.MustCompile(`(?s)window\._sharedData\s*=\s*(\{.*?\});\s*</`)

type pageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// mediaEdges is the nested-variant connection: edge objects each wrapping a
// node one level deeper.
type mediaEdges struct {
	Edges    []json.RawMessage `json:"edges"`
	PageInfo pageInfo          `json:"page_info"`
}

// mediaNodes is the flat-variant connection served by older landing
// documents: fields sit directly on each node.
type mediaNodes struct {
	Nodes    []json.RawMessage `json:"nodes"`
	PageInfo pageInfo          `json:"page_info"`
}

type hashtagPayload struct {
	EdgeHashtagToMedia *mediaEdges `json:"edge_hashtag_to_media"`
	Media              *mediaNodes `json:"media"`
}

type landingJSON struct {
	GraphQL struct {
		Hashtag *hashtagPayload `json:"hashtag"`
	} `json:"graphql"`
}

type sharedDataJSON struct {
	EntryData struct {
		TagPage []struct {
			Tag     *hashtagPayload `json:"tag"`
			GraphQL struct {
				Hashtag *hashtagPayload `json:"hashtag"`
			} `json:"graphql"`
		} `json:"TagPage"`
	} `json:"entry_data"`
}

type queryJSON struct {
	Data struct {
		Hashtag *hashtagPayload `json:"hashtag"`
	} `json:"data"`
	Status string `json:"status"`
}

// parseLanding extracts the first page from a landing response: a JSON-only
// variant document, or an HTML document embedding window._sharedData.
func parseLanding(body []byte) (*domain.RawPage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc landingJSON
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "parsing landing JSON")
		}
		return pageFromPayload(doc.GraphQL.Hashtag)
	}

	match := sharedDataRe.FindSubmatch(body)
	if match == nil {
		return nil, errors.Wrap(feed.ErrEmptyResponse, "no shared data payload in landing document")
	}

	var doc sharedDataJSON
	if err := json.Unmarshal(match[1], &doc); err != nil {
		return nil, errors.Wrap(err, "parsing shared data payload")
	}
	if len(doc.EntryData.TagPage) == 0 {
		return nil, errors.Wrap(feed.ErrEmptyResponse, "shared data carries no tag page")
	}

	entry := doc.EntryData.TagPage[0]
	if entry.Tag != nil {
		return pageFromPayload(entry.Tag)
	}
	return pageFromPayload(entry.GraphQL.Hashtag)
}

// parseQueryPage extracts a page from the query resource response.
func parseQueryPage(body []byte) (*domain.RawPage, error) {
	var doc queryJSON
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing page JSON")
	}
	return pageFromPayload(doc.Data.Hashtag)
}

// pageFromPayload maps either connection shape onto a RawPage. A payload with
// neither shape is the upstream's "empty"/error response.
func pageFromPayload(payload *hashtagPayload) (*domain.RawPage, error) {
	if payload == nil {
		return nil, feed.ErrEmptyResponse
	}

	switch {
	case payload.EdgeHashtagToMedia != nil:
		conn := payload.EdgeHashtagToMedia
		return &domain.RawPage{
			Nodes:     conn.Edges,
			EndCursor: conn.PageInfo.EndCursor,
			HasNext:   conn.PageInfo.HasNextPage,
		}, nil
	case payload.Media != nil:
		conn := payload.Media
		return &domain.RawPage{
			Nodes:     conn.Nodes,
			EndCursor: conn.PageInfo.EndCursor,
			HasNext:   conn.PageInfo.HasNextPage,
		}, nil
	default:
		return nil, feed.ErrEmptyResponse
	}
}
