package post

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/repositories"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Create inserts a post, mapping a unique violation on post_id to
// ErrAlreadyExists. Later content never overwrites the earlier record.
func (p *Pgx) Create(ctx context.Context, post domain.Post) error {
	query, args, err := repositories.SqBuilder.
		Insert("posts").
		Columns(
			"post_id", "code", "user_id", "username", "is_private",
			"caption", "hashtags", "comment_count", "like_count",
			"img_small", "img_large", "posted_at", "is_video", "created_at",
		).
		Values(
			post.PostID, post.Code, post.User.UserID, post.User.Username, post.User.IsPrivate,
			post.Caption, post.Hashtags, post.CommentCount, post.LikeCount,
			post.ImgSmall, post.ImgLarge, post.PostedAt, post.IsVideo, time.Now(),
		).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// CountByTag returns how many stored posts carry the given hashtag.
func (p *Pgx) CountByTag(ctx context.Context, hashtag string) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Select("COUNT(*)").
		From("posts").
		Where(sq.Expr("? = ANY(hashtags)", hashtag)).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	var count int64
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetLatestByTag returns the most recently stored posts carrying the given
// hashtag, limited by count.
func (p *Pgx) GetLatestByTag(ctx context.Context, hashtag string, count int) ([]*domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select(
			"post_id", "code", "user_id", "username", "is_private",
			"caption", "hashtags", "comment_count", "like_count",
			"img_small", "img_large", "posted_at", "is_video", "created_at",
		).
		From("posts").
		Where(sq.Expr("? = ANY(hashtags)", hashtag)).
		OrderBy("created_at DESC").
		Limit(uint64(count)).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.PostID, &post.Code, &post.User.UserID, &post.User.Username, &post.User.IsPrivate,
			&post.Caption, &post.Hashtags, &post.CommentCount, &post.LikeCount,
			&post.ImgSmall, &post.ImgLarge, &post.PostedAt, &post.IsVideo, &post.CreatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// CleanupOldRecords deletes posts stored longer ago than olderThan.
func (p *Pgx) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query, args, err := repositories.SqBuilder.
		Delete("posts").
		Where(sq.Lt{"created_at": cutoffTime}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
