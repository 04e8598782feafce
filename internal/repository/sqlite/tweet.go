package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.TweetRepository = (*DB)(nil)

const tweetSelect = `SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
	o.id, o.username, o.full_name, o.avatar_url
	FROM tweets t JOIN users o ON o.id = t.owner_id`

func scanTweet(row rowScanner) (*model.Tweet, error) {
	var (
		t     model.Tweet
		owner model.UserSummary
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt,
		&owner.ID, &owner.Username, &owner.FullName, &owner.AvatarURL)
	if err != nil {
		return nil, err
	}
	t.Owner = &owner
	return &t, nil
}

func (db *DB) CreateTweet(ctx context.Context, t *model.Tweet) error {
	t.ID = xid.New().String()
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tweets (id, owner_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Content, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting tweet: %w", err)
	}
	return nil
}

func (db *DB) GetTweetByID(ctx context.Context, id string) (*model.Tweet, error) {
	t, err := scanTweet(db.conn.QueryRowContext(ctx, tweetSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "tweet", id)
	}
	return t, nil
}

// ListTweetsByOwner returns all of a user's tweets, newest first.
func (db *DB) ListTweetsByOwner(ctx context.Context, ownerID string) ([]model.Tweet, error) {
	rows, err := db.conn.QueryContext(ctx,
		tweetSelect+` WHERE t.owner_id = ? ORDER BY t.created_at DESC, t.id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tweets: %w", err)
	}
	defer rows.Close()

	tweets := []model.Tweet{}
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tweet: %w", err)
		}
		tweets = append(tweets, *t)
	}
	return tweets, rows.Err()
}

func (db *DB) UpdateTweet(ctx context.Context, id, content string) (*model.Tweet, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE tweets SET content = ?, updated_at = ? WHERE id = ?`, content, now(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating tweet %s: %w", id, err)
	}
	if err := expectOne(res, "tweet", id); err != nil {
		return nil, err
	}
	return db.GetTweetByID(ctx, id)
}

func (db *DB) DeleteTweet(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tweet %s: %w", id, err)
	}
	return expectOne(res, "tweet", id)
}
