package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatNodeJSON = `{
	"id": "111",
	"code": "ABC123",
	"owner": {"id": "42", "username": "someone", "is_private": false},
	"caption": "Great day! #sun #fun2023 #a-b",
	"comments": {"count": 3},
	"likes": {"count": 17},
	"thumbnail_src": "https://cdn.example/small.jpg",
	"display_src": "https://cdn.example/large.jpg",
	"date": 1491234567,
	"is_video": false
}`

const nestedNodeJSON = `{
	"node": {
		"id": "111",
		"shortcode": "ABC123",
		"owner": {"id": "42", "username": "someone", "is_private": false},
		"edge_media_to_caption": {"edges": [{"node": {"text": "Great day! #sun #fun2023 #a-b"}}]},
		"edge_media_to_comment": {"count": 3},
		"edge_liked_by": {"count": 17},
		"thumbnail_src": "https://cdn.example/small.jpg",
		"display_url": "https://cdn.example/large.jpg",
		"taken_at_timestamp": 1491234567,
		"is_video": false
	}
}`

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    []string
	}{
		{
			name:    "punctuation stripped, order preserved",
			caption: "Great day! #sun #fun2023 #a-b",
			want:    []string{"#sun", "#fun2023", "#ab"},
		},
		{
			name:    "duplicates kept",
			caption: "#sun again #sun",
			want:    []string{"#sun", "#sun"},
		},
		{
			name:    "no hashtags",
			caption: "just a caption",
			want:    nil,
		},
		{
			name:    "empty caption",
			caption: "",
			want:    nil,
		},
		{
			name:    "underscores survive",
			caption: "#snake_case rules",
			want:    []string{"#snake_case"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHashtags(tt.caption))
		})
	}
}

func TestNormalizeFlatVariant(t *testing.T) {
	n := New(nil)

	post, err := n.Normalize(domain.RawNode(flatNodeJSON))
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, "111", post.PostID)
	assert.Equal(t, "ABC123", post.Code)
	assert.Equal(t, "42", post.User.UserID)
	assert.Equal(t, "someone", post.User.Username)
	assert.False(t, post.User.IsPrivate)
	assert.Equal(t, "Great day! #sun #fun2023 #a-b", post.Caption)
	assert.Equal(t, []string{"#sun", "#fun2023", "#ab"}, post.Hashtags)
	assert.Equal(t, 3, post.CommentCount)
	assert.Equal(t, 17, post.LikeCount)
	assert.Equal(t, "https://cdn.example/small.jpg", post.ImgSmall)
	assert.Equal(t, "https://cdn.example/large.jpg", post.ImgLarge)
	assert.Equal(t, "1491234567", post.PostedAt)
	assert.False(t, post.IsVideo)
}

func TestNormalizeSchemaTolerance(t *testing.T) {
	n := New(nil)

	flat, err := n.Normalize(domain.RawNode(flatNodeJSON))
	require.NoError(t, err)
	require.NotNil(t, flat)

	nested, err := n.Normalize(domain.RawNode(nestedNodeJSON))
	require.NoError(t, err)
	require.NotNil(t, nested)

	// Equivalent underlying data normalizes to equivalent canonical posts
	// regardless of the schema variant it arrived in.
	assert.Equal(t, flat, nested)
}

func TestNormalizeDeterminism(t *testing.T) {
	n := New(nil)

	first, err := n.Normalize(domain.RawNode(nestedNodeJSON))
	require.NoError(t, err)
	second, err := n.Normalize(domain.RawNode(nestedNodeJSON))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalizeOptionalFieldsAbsent(t *testing.T) {
	n := New(nil)

	raw := `{"node": {"id": "5", "shortcode": "XYZ", "owner": {"id": "9"}}}`
	post, err := n.Normalize(domain.RawNode(raw))
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Empty(t, post.Caption)
	assert.Empty(t, post.Hashtags)
	assert.Empty(t, post.User.Username)
	assert.Zero(t, post.CommentCount)
	assert.Zero(t, post.LikeCount)
	assert.Empty(t, post.PostedAt)
}

func TestNormalizeMalformedNodes(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing id flat", raw: `{"code": "ABC"}`},
		{name: "missing code flat", raw: `{"id": "1"}`},
		{name: "missing id nested", raw: `{"node": {"shortcode": "ABC"}}`},
		{name: "missing shortcode nested", raw: `{"node": {"id": "1"}}`},
		{name: "not an object", raw: `[1, 2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := n.Normalize(domain.RawNode(tt.raw))
			assert.Nil(t, post)
			assert.ErrorIs(t, err, ErrMalformedNode)
		})
	}
}

func TestNormalizeExclusion(t *testing.T) {
	n := New([]string{"#ad"})

	raw := map[string]any{
		"id":      "7",
		"code":    "SPON",
		"owner":   map[string]any{"id": "1"},
		"caption": "check this out #ad #sun",
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	post, err := n.Normalize(domain.RawNode(data))
	assert.NoError(t, err)
	assert.Nil(t, post)
}

func TestNormalizeExclusionUsesNormalizedTokens(t *testing.T) {
	// The exclusion set goes through the same normalization as extraction,
	// so "#a-d!" in config matches "#ad" in a caption.
	n := New([]string{"#a-d!"})

	raw := `{"id": "7", "code": "SPON", "owner": {"id": "1"}, "caption": "#ad"}`
	post, err := n.Normalize(domain.RawNode(raw))
	assert.NoError(t, err)
	assert.Nil(t, post)
}

func TestNormalizePostedAtPreservedAsGiven(t *testing.T) {
	n := New(nil)

	raw := `{"id": "8", "code": "D8", "owner": {"id": "1"}, "date": "2017-04-03T12:00:00Z"}`
	post, err := n.Normalize(domain.RawNode(raw))
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, "2017-04-03T12:00:00Z", post.PostedAt)
}
