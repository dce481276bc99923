// Package normalizer maps raw feed nodes onto the canonical post shape. It is
// a pure mapping: the same node always yields the same post, and optional
// field absence never raises.
package normalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
)

// ErrMalformedNode marks a node missing a structurally required field. The
// caller skips the node; the rest of the batch is unaffected.
var ErrMalformedNode = errors.New("malformed feed node")

var nonWordRe = regexp.MustCompile(`\W+`)

var nullToken = []byte("null")

// Normalizer holds the configured hashtag exclusion set, stored in the same
// normalized form extraction produces.
type Normalizer struct {
	excluded map[string]struct{}
}

func New(excludedHashtags []string) *Normalizer {
	excluded := make(map[string]struct{}, len(excludedHashtags))
	for _, tag := range excludedHashtags {
		excluded[normalizeToken(tag)] = struct{}{}
	}
	return &Normalizer{excluded: excluded}
}

type ownerJSON struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsPrivate bool   `json:"is_private"`
}

type countJSON struct {
	Count int `json:"count"`
}

// flatNode carries fields directly on the node.
type flatNode struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Owner        ownerJSON       `json:"owner"`
	Caption      string          `json:"caption"`
	Comments     countJSON       `json:"comments"`
	Likes        countJSON       `json:"likes"`
	ThumbnailSrc string          `json:"thumbnail_src"`
	DisplaySrc   string          `json:"display_src"`
	Date         json.RawMessage `json:"date"`
	IsVideo      bool            `json:"is_video"`
}

// nestedNode carries fields wrapped one level deeper, with caption and counts
// as edge objects.
type nestedNode struct {
	ID                 string    `json:"id"`
	Shortcode          string    `json:"shortcode"`
	Owner              ownerJSON `json:"owner"`
	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
	EdgeMediaToComment countJSON       `json:"edge_media_to_comment"`
	EdgeLikedBy        countJSON       `json:"edge_liked_by"`
	ThumbnailSrc       string          `json:"thumbnail_src"`
	DisplayURL         string          `json:"display_url"`
	TakenAtTimestamp   json.RawMessage `json:"taken_at_timestamp"`
	IsVideo            bool            `json:"is_video"`
}

// envelope exists only to classify the variant: a nested node wraps its
// fields under a "node" key, a flat node does not.
type envelope struct {
	Node json.RawMessage `json:"node"`
}

// Normalize maps one raw node to a canonical post. It returns (nil, nil) when
// the post's hashtags intersect the exclusion set, and ErrMalformedNode when
// a structurally required field is missing.
func (n *Normalizer) Normalize(raw domain.RawNode) (*domain.Post, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}

	var post *domain.Post
	var err error
	if isPresent(env.Node) {
		post, err = normalizeNested(env.Node)
	} else {
		post, err = normalizeFlat(raw)
	}
	if err != nil {
		return nil, err
	}

	if n.isExcluded(post.Hashtags) {
		return nil, nil
	}
	return post, nil
}

func normalizeFlat(raw json.RawMessage) (*domain.Post, error) {
	var node flatNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	if node.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedNode)
	}
	if node.Code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrMalformedNode)
	}

	return &domain.Post{
		PostID: node.ID,
		Code:   node.Code,
		User: domain.Owner{
			UserID:    node.Owner.ID,
			Username:  node.Owner.Username,
			IsPrivate: node.Owner.IsPrivate,
		},
		Caption:      node.Caption,
		Hashtags:     ExtractHashtags(node.Caption),
		CommentCount: node.Comments.Count,
		LikeCount:    node.Likes.Count,
		ImgSmall:     node.ThumbnailSrc,
		ImgLarge:     node.DisplaySrc,
		PostedAt:     rawScalar(node.Date),
		IsVideo:      node.IsVideo,
	}, nil
}

func normalizeNested(raw json.RawMessage) (*domain.Post, error) {
	var node nestedNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNode, err)
	}
	if node.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedNode)
	}
	if node.Shortcode == "" {
		return nil, fmt.Errorf("%w: missing shortcode", ErrMalformedNode)
	}

	caption := ""
	if len(node.EdgeMediaToCaption.Edges) > 0 {
		caption = node.EdgeMediaToCaption.Edges[0].Node.Text
	}

	return &domain.Post{
		PostID: node.ID,
		Code:   node.Shortcode,
		User: domain.Owner{
			UserID:    node.Owner.ID,
			Username:  node.Owner.Username,
			IsPrivate: node.Owner.IsPrivate,
		},
		Caption:      caption,
		Hashtags:     ExtractHashtags(caption),
		CommentCount: node.EdgeMediaToComment.Count,
		LikeCount:    node.EdgeLikedBy.Count,
		ImgSmall:     node.ThumbnailSrc,
		ImgLarge:     node.DisplayURL,
		PostedAt:     rawScalar(node.TakenAtTimestamp),
		IsVideo:      node.IsVideo,
	}, nil
}

// ExtractHashtags splits a caption on whitespace and keeps #-prefixed tokens,
// stripping non-word characters from each while retaining the leading marker.
// First-occurrence order is preserved and duplicates are kept.
func ExtractHashtags(caption string) []string {
	if caption == "" {
		return nil
	}

	var hashtags []string
	for _, word := range strings.Fields(caption) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		hashtags = append(hashtags, normalizeToken(word))
	}
	return hashtags
}

func normalizeToken(token string) string {
	return "#" + nonWordRe.ReplaceAllString(token, "")
}

func (n *Normalizer) isExcluded(hashtags []string) bool {
	for _, tag := range hashtags {
		if _, ok := n.excluded[tag]; ok {
			return true
		}
	}
	return false
}

// rawScalar renders a source-supplied scalar as the string it came in as,
// without reinterpreting it. Quoted values lose their quotes, numbers keep
// their textual form.
func rawScalar(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, nullToken) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// isPresent reports whether a raw JSON field was present and non-null.
func isPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, nullToken)
}
