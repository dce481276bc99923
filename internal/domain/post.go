package domain

import "time"

// Owner identifies the account a post belongs to.
type Owner struct {
	UserID    string
	Username  string
	IsPrivate bool
}

// Post is the canonical, shape-independent representation of one feed entry.
type Post struct {
	PostID       string   // Unique identity key in the sink
	Code         string   // Shareable short identifier
	User         Owner    // Post owner details
	Caption      string   // May be empty
	Hashtags     []string // Derived from caption, first-occurrence order, duplicates kept
	CommentCount int
	LikeCount    int
	ImgSmall     string
	ImgLarge     string
	PostedAt     string // Source-supplied epoch or date string, preserved as given
	IsVideo      bool
	CreatedAt    time.Time // Set by the sink on insert
}
