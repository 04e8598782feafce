package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.LikeRepository = (*DB)(nil)

// likeColumns maps a target kind to its nullable column in likes.
var likeColumns = map[model.LikeTarget]string{
	model.LikeVideo:   "video_id",
	model.LikeComment: "comment_id",
	model.LikeTweet:   "tweet_id",
}

// ToggleLike deletes the like if it exists and inserts it otherwise, inside
// one transaction so a concurrent toggle cannot interleave.
func (db *DB) ToggleLike(ctx context.Context, userID string, target model.LikeTarget, targetID string) (bool, error) {
	col, ok := likeColumns[target]
	if !ok {
		return false, fmt.Errorf("sqlite: unknown like target %q", target)
	}

	var liked bool
	err := db.withTx(ctx, func(tx dbtx) error {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM likes WHERE liked_by = ? AND `+col+` = ?`, userID, targetID,
		).Scan(&id)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE id = ?`, id); err != nil {
				return fmt.Errorf("sqlite: removing like: %w", err)
			}
			liked = false
			return nil
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO likes (id, liked_by, `+col+`, created_at) VALUES (?, ?, ?, ?)`,
				xid.New().String(), userID, targetID, now(),
			); err != nil {
				return fmt.Errorf("sqlite: adding like: %w", err)
			}
			liked = true
			return nil
		default:
			return fmt.Errorf("sqlite: looking up like: %w", err)
		}
	})
	return liked, err
}

// ListLikedVideos returns published videos the user liked, newest like first.
func (db *DB) ListLikedVideos(ctx context.Context, userID string) ([]model.LikedVideo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+`, l.created_at`+videoFrom+`
		 JOIN likes l ON l.video_id = v.id
		 WHERE l.liked_by = ? AND v.is_published = 1
		 ORDER BY l.created_at DESC, l.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing liked videos: %w", err)
	}
	defer rows.Close()

	liked := []model.LikedVideo{}
	for rows.Next() {
		var lv model.LikedVideo
		if err := scanVideoInto(rows, &lv.Video, &lv.LikedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning liked video: %w", err)
		}
		liked = append(liked, lv)
	}
	return liked, rows.Err()
}
