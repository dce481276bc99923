package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upIndexHashtags, downIndexHashtags)
}

func upIndexHashtags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE INDEX posts_hashtags_idx ON posts USING GIN (hashtags);
	CREATE INDEX posts_created_at_idx ON posts (created_at DESC);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downIndexHashtags(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP INDEX posts_created_at_idx;
	DROP INDEX posts_hashtags_idx;
	`)
	if err != nil {
		return err
	}
	return nil
}
