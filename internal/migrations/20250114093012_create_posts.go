package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePosts, downCreatePosts)
}

func upCreatePosts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE posts (
		id SERIAL PRIMARY KEY,
		post_id VARCHAR NOT NULL,
		code VARCHAR NOT NULL,
		user_id VARCHAR,
		username VARCHAR,
		is_private BOOLEAN NOT NULL DEFAULT FALSE,
		caption TEXT,
		hashtags TEXT[] NOT NULL DEFAULT '{}',
		comment_count INTEGER NOT NULL DEFAULT 0,
		like_count INTEGER NOT NULL DEFAULT 0,
		img_small VARCHAR,
		img_large VARCHAR,
		posted_at VARCHAR,
		is_video BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX posts_post_id_key ON posts (post_id);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreatePosts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE posts;
	`)
	if err != nil {
		return err
	}
	return nil
}
